package empathy

import (
	"fmt"

	"github.com/6tail/lunar-go/calendar"
)

const (
	minLunarYear = 1900
	maxLunarYear = 2100
)

// SolarBirth is the result of ToSolarBirth.
type SolarBirth struct {
	Solar     Birth  `json:"solar"`
	Converted bool   `json:"converted"`
	Note      string `json:"note,omitempty"`
}

// ToSolarBirth converts a lunar birth date to the solar calendar. Solar
// input is returned unchanged. On any conversion failure the raw date is
// treated as solar and Note explains why.
func ToSolarBirth(birth Birth) SolarBirth {
	if birth.Calendar != CalendarLunar {
		out := birth
		out.Calendar = CalendarSolar
		out.LeapMonth = false
		return SolarBirth{Solar: out}
	}

	fallback := birth
	fallback.Calendar = CalendarSolar
	fallback.LeapMonth = false

	solar, err := convertLunar(birth)
	if err != nil {
		return SolarBirth{
			Solar: fallback,
			Note:  fmt.Sprintf("음력 날짜를 양력으로 바꾸지 못해 입력한 날짜를 양력으로 보고 계산했어요 (%v).", err),
		}
	}

	leap := ""
	if birth.LeapMonth {
		leap = "윤"
	}
	return SolarBirth{
		Solar:     solar,
		Converted: true,
		Note: fmt.Sprintf("음력 %d년 %s%d월 %d일을 양력 %d년 %d월 %d일로 바꿔 계산했어요.",
			birth.Year, leap, birth.Month, birth.Day, solar.Year, solar.Month, solar.Day),
	}
}

func convertLunar(birth Birth) (out Birth, err error) {
	if birth.Year < minLunarYear || birth.Year > maxLunarYear {
		return Birth{}, fmt.Errorf("지원 범위(%d-%d) 밖의 연도", minLunarYear, maxLunarYear)
	}
	if birth.Month < 1 || birth.Month > 12 || birth.Day < 1 || birth.Day > 30 {
		return Birth{}, fmt.Errorf("잘못된 음력 날짜 %d-%d", birth.Month, birth.Day)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("음력 변환 실패: %v", r)
		}
	}()

	// lunar-go encodes a leap month as a negative month number.
	month := birth.Month
	if birth.LeapMonth {
		month = -month
	}
	lunarMonth := calendar.NewLunarYear(birth.Year).GetMonth(month)
	if lunarMonth == nil {
		if birth.LeapMonth {
			return Birth{}, fmt.Errorf("%d년에는 윤%d월이 없음", birth.Year, birth.Month)
		}
		return Birth{}, fmt.Errorf("%d년 %d월을 찾을 수 없음", birth.Year, birth.Month)
	}
	if birth.Day > lunarMonth.GetDayCount() {
		return Birth{}, fmt.Errorf("%d월은 %d일까지만 있음", birth.Month, lunarMonth.GetDayCount())
	}

	solar := calendar.NewLunarFromYmd(birth.Year, month, birth.Day).GetSolar()
	out = birth
	out.Year = solar.GetYear()
	out.Month = solar.GetMonth()
	out.Day = solar.GetDay()
	out.Calendar = CalendarSolar
	out.LeapMonth = false
	return out, nil
}
