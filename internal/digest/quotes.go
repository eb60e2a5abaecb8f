package digest

import "time"

// Quote is a short bilingual saying closing the digest.
type Quote struct {
	Uz string
	Ar string
}

var defaultQuotes = []Quote{
	{Uz: "Ilm nurdir", Ar: "العِلْمُ نُورٌ"},
	{Uz: "Kim harakat qilsa, topadi", Ar: "مَنْ جَدَّ وَجَدَ"},
	{Uz: "Sabr najot kalitidir", Ar: "الصَّبْرُ مِفْتَاحُ الفَرَجِ"},
	{Uz: "Vaqt qilich kabidir", Ar: "الوَقْتُ كَالسَّيْفِ"},
	{Uz: "Shoshilmaslikda salomatlik bor", Ar: "فِي التَّأَنِّي السَّلَامَةُ"},
	{Uz: "So'zning yaxshisi qisqa va mazmunlisidir", Ar: "خَيْرُ الكَلَامِ مَا قَلَّ وَدَلَّ"},
	{Uz: "Kitob eng yaxshi hamroh", Ar: "خَيْرُ جَلِيسٍ فِي الزَّمَانِ كِتَابُ"},
}

// DefaultQuotes returns a copy of the built-in quote catalog.
func DefaultQuotes() []Quote {
	out := make([]Quote, len(defaultQuotes))
	copy(out, defaultQuotes)
	return out
}

// QuoteOfDay picks a quote by day of year so every send on the same day
// carries the same line.
func QuoteOfDay(quotes []Quote, day time.Time) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	return quotes[(day.YearDay()-1)%len(quotes)], true
}
