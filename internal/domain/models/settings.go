package models

// Audience membedakan penerima notifikasi.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceAdmin    Audience = "admin"
)

// NotificationSetting toggles one (event, audience) pair. Absence of a row
// means enabled: hanya "false" eksplisit yang mematikan notifikasi.
type NotificationSetting struct {
	ID        int64
	EventType EventType
	Audience  Audience
	Enabled   bool
}
