package calendar

// Stem describes one of the ten heavenly stems.
type Stem struct {
	Char     string `json:"char"`
	Pinyin   string `json:"pinyin"`
	Element  string `json:"element"`
	Polarity string `json:"polarity"`
}

// Branch describes one of the twelve earthly branches.
type Branch struct {
	Char   string `json:"char"`
	Pinyin string `json:"pinyin"`
	Animal string `json:"animal"`
	// StartHour is the local hour at which the branch's two-hour bin begins.
	StartHour int `json:"start_hour"`
}

// SolarTermName names one of the 24 solar terms. Index i sits at ecliptic
// longitude 15*i degrees, so index 0 is the Spring Equinox.
type SolarTermName struct {
	Chinese string `json:"chinese"`
	Pinyin  string `json:"pinyin"`
	English string `json:"english"`
}

// Stems lists the heavenly stems by index (0 = Jia).
var Stems = [10]Stem{
	{"甲", "jiǎ", "Wood", "Yang"},
	{"乙", "yǐ", "Wood", "Yin"},
	{"丙", "bǐng", "Fire", "Yang"},
	{"丁", "dīng", "Fire", "Yin"},
	{"戊", "wù", "Earth", "Yang"},
	{"己", "jǐ", "Earth", "Yin"},
	{"庚", "gēng", "Metal", "Yang"},
	{"辛", "xīn", "Metal", "Yin"},
	{"壬", "rén", "Water", "Yang"},
	{"癸", "guǐ", "Water", "Yin"},
}

// Branches lists the earthly branches by index (0 = Zi).
var Branches = [12]Branch{
	{"子", "zǐ", "Rat", 23},
	{"丑", "chǒu", "Ox", 1},
	{"寅", "yín", "Tiger", 3},
	{"卯", "mǎo", "Rabbit", 5},
	{"辰", "chén", "Dragon", 7},
	{"巳", "sì", "Snake", 9},
	{"午", "wǔ", "Horse", 11},
	{"未", "wèi", "Goat", 13},
	{"申", "shēn", "Monkey", 15},
	{"酉", "yǒu", "Rooster", 17},
	{"戌", "xū", "Dog", 19},
	{"亥", "hài", "Pig", 21},
}

// SolarTermNames lists the 24 solar terms by solar index.
var SolarTermNames = [24]SolarTermName{
	{"春分", "chūnfēn", "Spring Equinox"},
	{"清明", "qīngmíng", "Clear and Bright"},
	{"谷雨", "gǔyǔ", "Grain Rain"},
	{"立夏", "lìxià", "Start of Summer"},
	{"小满", "xiǎomǎn", "Grain Buds"},
	{"芒种", "mángzhòng", "Grain in Ear"},
	{"夏至", "xiàzhì", "Summer Solstice"},
	{"小暑", "xiǎoshǔ", "Minor Heat"},
	{"大暑", "dàshǔ", "Major Heat"},
	{"立秋", "lìqiū", "Start of Autumn"},
	{"处暑", "chǔshǔ", "End of Heat"},
	{"白露", "báilù", "White Dew"},
	{"秋分", "qiūfēn", "Autumn Equinox"},
	{"寒露", "hánlù", "Cold Dew"},
	{"霜降", "shuāngjiàng", "Frost's Descent"},
	{"立冬", "lìdōng", "Start of Winter"},
	{"小雪", "xiǎoxuě", "Minor Snow"},
	{"大雪", "dàxuě", "Major Snow"},
	{"冬至", "dōngzhì", "Winter Solstice"},
	{"小寒", "xiǎohán", "Minor Cold"},
	{"大寒", "dàhán", "Major Cold"},
	{"立春", "lìchūn", "Start of Spring"},
	{"雨水", "yǔshuǐ", "Rain Water"},
	{"惊蛰", "jīngzhé", "Awakening of Insects"},
}

// WinterSolsticeTerm is the principal-term index of the Winter Solstice.
const WinterSolsticeTerm = 11

// PrincipalIndex maps a solar index (0..23) to its principal-term index
// (0..11), the traditional Z-number modulo 12: Z1 Rain Water = 1 through
// Z11 Winter Solstice = 11, Z12 Major Cold = 0. ok is false for odd (minor)
// solar indices.
func PrincipalIndex(solarIndex int) (index int, ok bool) {
	if solarIndex%2 != 0 {
		return 0, false
	}
	return (solarIndex/2 + 2) % 12, true
}

var monthNames = [12]string{"正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月", "腊月"}

var dayTens = [4]string{"初", "十", "廿", "三"}

var digits = [11]string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九", "十"}

// MonthName returns the traditional name of a lunar month, with a 闰 prefix
// for leap months.
func MonthName(month int, leap bool) string {
	if month < 1 || month > 12 {
		return ""
	}
	name := monthNames[month-1]
	if leap {
		name = "闰" + name
	}
	return name
}

// DayName returns the traditional name of a lunar day 1..30.
func DayName(day int) string {
	switch {
	case day < 1 || day > 30:
		return ""
	case day == 10:
		return "初十"
	case day == 20:
		return "二十"
	case day == 30:
		return "三十"
	}
	return dayTens[day/10] + digits[day%10]
}
