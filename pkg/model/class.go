package model

import "time"

// ClubClass is a recurring class offering spanning an inclusive date
// range. It owns one ClassSession per calendar day in the range; the
// sessions are created in the same write and deleted with the class.
type ClubClass struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	StartDate   time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" bson:"end_date" validate:"required"`
	StartTime   string    `json:"start_time" bson:"start_time" validate:"required,datetime=15:04"`
	DurationMin int       `json:"duration_min" bson:"duration_min" validate:"required,min=10,max=480"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=200"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// WindowCovers reports whether date falls inside the class validity
// window, endpoints included.
func (c *ClubClass) WindowCovers(date time.Time) bool {
	return !date.Before(c.StartDate) && !date.After(c.EndDate)
}

// SessionDates expands the validity window into one date per calendar
// day, start and end inclusive.
func (c *ClubClass) SessionDates() []time.Time {
	dates := make([]time.Time, 0, DaysInclusive(c.StartDate, c.EndDate))
	for d := c.StartDate; !d.After(c.EndDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// ClassSession is one day's concrete occurrence of a class, the actual
// bookable unit. Capacity is copied from the class at creation time;
// the authoritative limit for booking remains the class capacity.
// BookedCount is mutated only through the conditional increment in the
// session repository.
type ClassSession struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClassID     string    `json:"class_id" bson:"class_id" validate:"required,mongodb"`
	Date        time.Time `json:"date" bson:"date" validate:"required"`
	StartTime   string    `json:"start_time" bson:"start_time" validate:"required,datetime=15:04"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=200"`
	BookedCount int       `json:"booked_count" bson:"booked_count" validate:"min=0"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// CreateClassRequest is the inbound payload for class creation. Dates
// ride as calendar-date strings and are parsed after validation.
type CreateClassRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	DurationMin int    `json:"duration_min" validate:"required,min=10,max=480"`
	Capacity    int    `json:"capacity" validate:"required,min=1,max=200"`
}
