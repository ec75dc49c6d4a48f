package models

import (
	"fmt"
	"strings"
	"time"
)

// Profile is a food business's branding record. One per owner.
type Profile struct {
	ID             string    `json:"id,omitempty" db:"id"`
	OwnerID        string    `json:"fk_id_user" db:"fk_id_user"` // auth.users.id
	LogoURL        string    `json:"logo_url" db:"logo_url" validate:"omitempty,url"`
	PrimaryColor   string    `json:"primary_color" db:"primary_color" validate:"required,hexcolor"`
	SecondaryColor string    `json:"secondary_color" db:"secondary_color" validate:"required,hexcolor"`
	InstagramLink  string    `json:"instagram_link" db:"instagram_link" validate:"required,url"`
	BusinessName   string    `json:"business_name" db:"business_name" validate:"required,min=2"`
	Segment        string    `json:"segment" db:"segment" validate:"required,segment"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// IsComplete reports whether the profile has everything the generator needs.
func (p *Profile) IsComplete() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.BusinessName) != "" &&
		strings.TrimSpace(p.LogoURL) != "" &&
		strings.TrimSpace(p.PrimaryColor) != "" &&
		strings.TrimSpace(p.Segment) != ""
}

// Descriptor renders the business descriptors sent along with a generation request.
func (p *Profile) Descriptor() string {
	if p == nil {
		return ""
	}
	var parts []string
	if p.BusinessName != "" {
		parts = append(parts, p.BusinessName)
	}
	if p.Segment != "" {
		parts = append(parts, fmt.Sprintf("segment %s", SegmentLabel(p.Segment)))
	}
	if p.PrimaryColor != "" {
		colors := p.PrimaryColor
		if p.SecondaryColor != "" {
			colors += " and " + p.SecondaryColor
		}
		parts = append(parts, fmt.Sprintf("brand colors %s", colors))
	}
	return strings.Join(parts, ", ")
}

// ProfileResponse wraps a profile with its completeness flag.
type ProfileResponse struct {
	Profile  *Profile `json:"profile"`
	Complete bool     `json:"complete"`
	Success  bool     `json:"success"`
}

// Segment is a selectable business segment.
type Segment struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var BusinessSegments = []Segment{
	{Value: "restaurant", Label: "Restaurant"},
	{Value: "cafe", Label: "Café"},
	{Value: "bakery", Label: "Bakery"},
	{Value: "pizzeria", Label: "Pizzeria"},
	{Value: "hamburger", Label: "Hamburger Joint"},
	{Value: "sushi", Label: "Sushi Bar"},
	{Value: "icecream", Label: "Ice Cream Shop"},
	{Value: "foodtruck", Label: "Food Truck"},
	{Value: "catering", Label: "Catering Service"},
	{Value: "other", Label: "Other"},
}

func IsValidSegment(value string) bool {
	for _, s := range BusinessSegments {
		if s.Value == value {
			return true
		}
	}
	return false
}

// SegmentLabel falls back to the raw value for unknown segments.
func SegmentLabel(value string) string {
	for _, s := range BusinessSegments {
		if s.Value == value {
			return s.Label
		}
	}
	return value
}
