package weather

// Condition is a bilingual weather label.
type Condition struct {
	Uz string
	Ar string
}

// ConditionUnknown is used for WMO codes missing from the table.
var ConditionUnknown = Condition{Uz: "Noma'lum", Ar: "غَيْر مَعْرُوف"}

// WMO weather interpretation codes as reported by Open-Meteo.
var conditionsByCode = map[int]Condition{
	0:  {Uz: "Ochiq", Ar: "صَافِي"},
	1:  {Uz: "Asosan ochiq", Ar: "صَافِي غَالِباً"},
	2:  {Uz: "Biroz bulutli", Ar: "غَائِم جُزْئِيّاً"},
	3:  {Uz: "Bulutli", Ar: "غَائِم"},
	45: {Uz: "Tuman", Ar: "ضَبَاب"},
	48: {Uz: "Qirov tuman", Ar: "ضَبَاب صَقِيع"},
	51: {Uz: "Yengil yomg'ir", Ar: "رَذَاذ خَفِيف"},
	53: {Uz: "Yomg'ir", Ar: "رَذَاذ"},
	55: {Uz: "Kuchli yomg'ir", Ar: "رَذَاذ كَثِيف"},
	61: {Uz: "Yengil yomg'ir", Ar: "مَطَر خَفِيف"},
	63: {Uz: "Yomg'ir", Ar: "مَطَر"},
	65: {Uz: "Kuchli yomg'ir", Ar: "مَطَر غَزِير"},
	71: {Uz: "Yengil qor", Ar: "ثَلْج خَفِيف"},
	73: {Uz: "Qor", Ar: "ثَلْج"},
	75: {Uz: "Kuchli qor", Ar: "ثَلْج كَثِيف"},
	77: {Uz: "Qor donalari", Ar: "حُبَيْبَات ثَلْج"},
	80: {Uz: "Yengil yog'in", Ar: "زَخَّات خَفِيفَة"},
	81: {Uz: "Yog'in", Ar: "زَخَّات"},
	82: {Uz: "Kuchli yog'in", Ar: "زَخَّات غَزِيرَة"},
	85: {Uz: "Yengil qor yog'ishi", Ar: "زَخَّات ثَلْج خَفِيفَة"},
	86: {Uz: "Kuchli qor yog'ishi", Ar: "زَخَّات ثَلْج كَثِيفَة"},
	95: {Uz: "Momaqaldiroq", Ar: "عَاصِفَة رَعْدِيَّة"},
	96: {Uz: "Do'l bilan momaqaldiroq", Ar: "عَاصِفَة رَعْدِيَّة مَعَ بَرَد"},
	99: {Uz: "Kuchli do'l", Ar: "بَرَد شَدِيد"},
}

// ConditionFromCode maps a WMO code to its bilingual label.
func ConditionFromCode(code int) Condition {
	if c, ok := conditionsByCode[code]; ok {
		return c
	}
	return ConditionUnknown
}
