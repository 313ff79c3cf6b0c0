package model

const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusQuoted     = "quoted"
	StatusClosed     = "closed"
)

const (
	ServiceWebsite   = "website"
	ServiceWebshop   = "webshop"
	ServiceMarketing = "marketing"
	ServiceDesign    = "design"
	ServiceOther     = "other"
)

func IsValidServiceType(serviceType string) bool {
	switch serviceType {
	case ServiceWebsite, ServiceWebshop, ServiceMarketing, ServiceDesign, ServiceOther:
		return true
	}
	return false
}

type QuoteRequest struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
	BudgetHint  string `json:"budget_hint"`
	Status      string `json:"status"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
