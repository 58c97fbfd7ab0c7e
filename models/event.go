package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

const CollectionEvents = "events"

type Event struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Location            string    `json:"location"`
	EventDate           time.Time `json:"event_date"`
	Price               float64   `json:"price"`
	TotalTickets        int       `json:"total_tickets"`
	DisplayTotalTickets bool      `json:"display_total_tickets"`
	IsCancelled         bool      `json:"is_cancelled"`
	UserID              string    `json:"user_id"`
	ImageURL            string    `json:"image_url"`
}

func EventFromRecord(r *core.Record) *Event {
	return &Event{
		ID:                  r.Id,
		Name:                r.GetString("name"),
		Description:         r.GetString("description"),
		Location:            r.GetString("location"),
		EventDate:           r.GetDateTime("event_date").Time(),
		Price:               r.GetFloat("price"),
		TotalTickets:        r.GetInt("total_tickets"),
		DisplayTotalTickets: r.GetBool("display_total_tickets"),
		IsCancelled:         r.GetBool("is_cancelled"),
		UserID:              r.GetString("user"),
		ImageURL:            r.GetString("image_url"),
	}
}

func (e *Event) HasEnded(now time.Time) bool {
	return !e.EventDate.IsZero() && e.EventDate.Before(now)
}
