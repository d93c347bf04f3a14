package discovery

import (
	"time"

	"github.com/kirinyoku/barhop/internal/domain"
)

// StatusColorFor derives whether a venue is open at now from its weekly hours.
//
// Rules, in order:
//   - no weekly hours, or no entry for today: unknown;
//   - today's entry carries a closed marker: closed, whatever the time;
//   - yesterday's hours span midnight and now is before their close: open;
//   - today's entry has no two readable times: open;
//   - now within [open, close]: open; before open: opens later; else closed.
//
// A close earlier than the open is taken to fall on the next calendar day.
func StatusColorFor(v domain.Venue, now time.Time) domain.VenueOpenStatus {
	wd := int(now.Weekday())
	if len(v.WeeklyHours) == 0 || wd >= len(v.WeeklyHours) {
		return newStatus(domain.StatusUnknown, "")
	}

	today := v.WeeklyHours[wd]
	if IsClosedMarker(today) {
		return newStatus(domain.StatusClosed, "closed today")
	}

	if closeAt, ok := carriedOver(v.WeeklyHours, wd, now); ok {
		return newStatus(domain.StatusOpen, "open until "+closeAt.Format("15:04"))
	}

	openMin, closeMin, ok := ParseHours(today)
	if !ok {
		return newStatus(domain.StatusOpen, "open")
	}

	openAt, closeAt := span(now, openMin, closeMin)

	switch {
	case !now.Before(openAt) && !now.After(closeAt):
		return newStatus(domain.StatusOpen, "open until "+formatClock(closeMin))
	case now.Before(openAt):
		st := newStatus(domain.StatusOpensLater, "opens at "+formatClock(openMin))
		st.OpensAtMinute = openMin
		return st
	default:
		return newStatus(domain.StatusClosed, "closed since "+formatClock(closeMin))
	}
}

// carriedOver reports whether now still falls inside yesterday's opening when
// those hours run past midnight.
func carriedOver(week []string, wd int, now time.Time) (time.Time, bool) {
	prev := (wd + 6) % 7
	if prev >= len(week) || IsClosedMarker(week[prev]) {
		return time.Time{}, false
	}

	openMin, closeMin, ok := ParseHours(week[prev])
	if !ok || closeMin > openMin {
		return time.Time{}, false
	}

	openAt, closeAt := span(now.AddDate(0, 0, -1), openMin, closeMin)
	if now.Before(openAt) || now.After(closeAt) {
		return time.Time{}, false
	}

	return closeAt, true
}

// span returns the opening window anchored on day's calendar date. Equal
// open and close times mean the venue never closes that day.
func span(day time.Time, openMin, closeMin int) (time.Time, time.Time) {
	y, m, d := day.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, day.Location())

	openAt := midnight.Add(time.Duration(openMin) * time.Minute)
	closeAt := midnight.Add(time.Duration(closeMin) * time.Minute)
	if !closeAt.After(openAt) {
		closeAt = closeAt.AddDate(0, 0, 1)
	}

	return openAt, closeAt
}

func newStatus(c domain.StatusColor, label string) domain.VenueOpenStatus {
	return domain.VenueOpenStatus{Color: c, Hex: c.Hex(), Label: label}
}
