// Package warmup tracks mailbox warmup progress: the gradual sending-volume
// ramp that new mailboxes go through before full-volume sending. The
// analytics pipeline consumes only the progress percentage; the schedule
// itself is exposed for the informational API.
package warmup

// TotalDays is the length of the standard warmup ramp.
const TotalDays = 30

// ScheduleEntry maps a warmup day to the planned daily send volume.
var ScheduleEntry = []struct {
	Day    int `json:"day"`
	Volume int `json:"volume"`
}{
	{1, 10}, {2, 10}, {3, 20}, {4, 20},
	{5, 40}, {6, 40}, {7, 40},
	{8, 75}, {9, 75}, {10, 75},
	{11, 120}, {12, 120}, {13, 120}, {14, 120},
	{15, 200}, {16, 200}, {17, 200}, {18, 200},
	{19, 300}, {20, 300}, {21, 300}, {22, 300},
	{23, 400}, {24, 400}, {25, 400}, {26, 400},
	{27, 500}, {28, 500}, {29, 500}, {30, 500},
}

// VolumeForDay returns the planned daily volume for a warmup day.
// Days past the schedule report the graduated volume.
func VolumeForDay(day int) int {
	for _, entry := range ScheduleEntry {
		if entry.Day == day {
			return entry.Volume
		}
	}
	if day > TotalDays {
		return 1000
	}
	return 10
}

// StageForDay names the warmup phase a mailbox is in.
func StageForDay(day int) string {
	switch {
	case day <= 7:
		return "seed"
	case day <= 14:
		return "validate"
	case day <= 22:
		return "expand"
	case day <= TotalDays:
		return "scale"
	default:
		return "established"
	}
}

// ProgressForDay converts a warmup day into the 0-100 progress percentage
// the health scorer consumes.
func ProgressForDay(day int) float64 {
	if day <= 0 {
		return 0
	}
	if day >= TotalDays {
		return 100
	}
	return float64(day) / float64(TotalDays) * 100
}
