package domain

type AccessLevel string

const (
	AccessDenied      AccessLevel = "DENIED"
	AccessPreviewOnly AccessLevel = "PREVIEW_ONLY"
	AccessFull        AccessLevel = "FULL_ACCESS"
)

const (
	ReasonAnonymous            = "login_required"
	ReasonPreview              = "preview"
	ReasonPurchaseRequired     = "purchase_required"
	ReasonSubscriptionRequired = "subscription_required"
	ReasonEnrollRequired       = "enrollment_required"
	ReasonEnrolled             = "enrolled"
)

type AccessDecision struct {
	Level  AccessLevel `json:"level"`
	Reason string      `json:"reason"`
}
