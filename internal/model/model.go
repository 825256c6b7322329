package model

import "time"

type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Appointment is a two-person time slot. Participants is ordered by
// join time, so the creator comes first for as long as they stay in.
// CreatorName and ParticipantNames are denormalized from the users
// table on read and never written back.
type Appointment struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	CreatedBy        string    `json:"created_by"`
	CreatorName      string    `json:"creator_name,omitempty"`
	Participants     []string  `json:"participants"`
	ParticipantNames []string  `json:"participant_names,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
	UpdatedAt        time.Time `json:"updated_at,omitzero"`
}

// Capacity is the maximum number of participants per appointment.
const Capacity = 2

func (a *Appointment) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

func (a *Appointment) Full() bool {
	return len(a.Participants) >= Capacity
}
