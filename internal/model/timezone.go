package model

import "time"

// Timezone is one of the three Indonesian zones a user can schedule in.
// All reminders are persisted in canonical WIB (UTC+7); the other zones
// are ahead of it, so their wall-clock times shift back on write and
// forward again on read.
type Timezone string

const (
	TimezoneWIB  Timezone = "WIB"  // UTC+7, canonical
	TimezoneWITA Timezone = "WITA" // UTC+8
	TimezoneWIT  Timezone = "WIT"  // UTC+9
)

// offset of each zone's wall clock ahead of canonical WIB.
var timezoneOffsets = map[Timezone]time.Duration{
	TimezoneWIB:  0,
	TimezoneWITA: time.Hour,
	TimezoneWIT:  2 * time.Hour,
}

func (z Timezone) Valid() bool {
	_, ok := timezoneOffsets[z]
	return ok
}

// ToCanonical converts a wall-clock instant in zone z to canonical WIB.
// 09:00 WITA becomes 08:00 WIB.
func (z Timezone) ToCanonical(t time.Time) time.Time {
	return t.Add(-timezoneOffsets[z])
}

// FromCanonical is the inverse of ToCanonical, used on the read/edit path.
func (z Timezone) FromCanonical(t time.Time) time.Time {
	return t.Add(timezoneOffsets[z])
}
