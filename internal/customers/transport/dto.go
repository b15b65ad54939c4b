package transport

import "time"

type EngagementResponse struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	StartDate     string    `json:"startDate"`
	TargetEndDate string    `json:"targetEndDate"`
	BudgetCents   *int64    `json:"budgetCents,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type CustomerResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Phone       *string              `json:"phone,omitempty"`
	Company     *string              `json:"company,omitempty"`
	City        *string              `json:"city,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	Engagements []EngagementResponse `json:"engagements"`
}
