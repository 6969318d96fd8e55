package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "OPEN"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
)

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// Category is the closed set of complaint categories.
type Category string

const (
	CategoryCarpentry  Category = "CARPENTRY"
	CategoryElectrical Category = "ELECTRICAL"
	CategoryPlumbing   Category = "PLUMBING"
	CategoryRagging    Category = "RAGGING"
)

// Categories returns every category in canonical order.
func Categories() []Category {
	return []Category{CategoryCarpentry, CategoryElectrical, CategoryPlumbing, CategoryRagging}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// MessageType classifies what the complainant is asking for.
type MessageType string

const (
	MessageTypeGrievance        MessageType = "GRIEVANCE"
	MessageTypeAssistance       MessageType = "ASSISTANCE"
	MessageTypeEnquiry          MessageType = "ENQUIRY"
	MessageTypeFeedback         MessageType = "FEEDBACK"
	MessageTypePositiveFeedback MessageType = "POSITIVE_FEEDBACK"
)

// UnknownBlock labels complaints without a block when grouping.
const UnknownBlock = "UNKNOWN"

// Complaint is a read-only ticket record owned by the complaint store.
type Complaint struct {
	ID          int64           `json:"id"`
	Category    Category        `json:"category"`
	Status      ComplaintStatus `json:"status"`
	RaisedBy    int64           `json:"raised_by"`
	CreatedAt   time.Time       `json:"created_at"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	Description string          `json:"description"`
	Block       string          `json:"block,omitempty"`
	SubBlock    string          `json:"sub_block,omitempty"`
	RoomNo      string          `json:"room_no,omitempty"`
	AssignedTo  string          `json:"assigned_to,omitempty"`
	MessageType MessageType     `json:"message_type,omitempty"`
}

// IsOpen reports whether the complaint still awaits resolution.
func (c Complaint) IsOpen() bool {
	return c.Status != ComplaintStatusResolved
}

// HoursOpen returns whole hours elapsed between creation and now, truncated toward zero.
func (c Complaint) HoursOpen(now time.Time) int64 {
	return int64(now.Sub(c.CreatedAt).Hours())
}
