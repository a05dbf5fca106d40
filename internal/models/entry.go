package models

import "time"

// DateLayout is the calendar-date form used for Entry.Date.
const DateLayout = "2006-01-02"

// Entry is one user's reflection for one calendar day.
type Entry struct {
	ID         int64     `json:"id"         db:"id"`
	UserID     string    `json:"user_id"    db:"user_id"`
	Date       string    `json:"date"       db:"date"`
	Journal    string    `json:"journal"    db:"journal"`
	Intention  string    `json:"intention"  db:"intention"`
	Dream      string    `json:"dream"      db:"dream"`
	Priorities string    `json:"priorities" db:"priorities"`
	Reflection string    `json:"reflection" db:"reflection"`
	Strategy   string    `json:"strategy"   db:"strategy"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// UpdatableFields lists the entry columns that may be changed after creation.
var UpdatableFields = []string{"journal", "intention", "dream", "priorities", "reflection", "strategy"}

// Stats summarises a user's entries. Earliest and Latest are nil when Count is 0.
type Stats struct {
	Count    int     `json:"count"`
	Earliest *string `json:"earliest_date"`
	Latest   *string `json:"latest_date"`
}

// CreateEntryRequest is the JSON body for POST /api/entries.
type CreateEntryRequest struct {
	Date       string    `json:"date"`
	Journal    string    `json:"journal"    validate:"required"`
	Dream      string    `json:"dream"`
	Intention  string    `json:"intention"  validate:"required"`
	Priorities [3]string `json:"priorities" validate:"dive,required"`
}

// CreateEntryResponse is returned after a successful submission.
type CreateEntryResponse struct {
	Entry   Entry  `json:"entry"`
	Insight string `json:"insight"`
}
