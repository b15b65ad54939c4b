package email

const (
	subjectCustomerWelcomeFmt     = "Welcome to your portal: %s"
	subjectConversionAttentionFmt = "Action needed: lead %s was converted but not removed"
)
