package weather

// Region is one entry of the static region catalog with its bilingual names.
type Region struct {
	ID     string  `json:"id"`
	NameUz string  `json:"name"`
	NameAr string  `json:"name_ar"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

var catalog = []Region{
	{ID: "toshkent", NameUz: "Toshkent", NameAr: "طَشْقَنْد", Lat: 41.2995, Lon: 69.2401},
	{ID: "samarqand", NameUz: "Samarqand", NameAr: "سَمَرْقَنْد", Lat: 39.6270, Lon: 66.9750},
	{ID: "buxoro", NameUz: "Buxoro", NameAr: "بُخَارَى", Lat: 39.7675, Lon: 64.4224},
	{ID: "andijon", NameUz: "Andijon", NameAr: "أَنْدِيجَان", Lat: 40.7821, Lon: 72.3442},
	{ID: "namangan", NameUz: "Namangan", NameAr: "نَمَنْغَان", Lat: 40.9983, Lon: 71.6726},
	{ID: "fargona", NameUz: "Farg'ona", NameAr: "فَرْغَانَة", Lat: 40.3864, Lon: 71.7864},
	{ID: "nukus", NameUz: "Nukus", NameAr: "نُوكُوس", Lat: 42.4531, Lon: 59.6103},
	{ID: "qarshi", NameUz: "Qarshi", NameAr: "قَرْشِي", Lat: 38.8606, Lon: 65.7975},
	{ID: "urganch", NameUz: "Urganch", NameAr: "أُورْجِينْتْش", Lat: 41.5500, Lon: 60.6333},
	{ID: "jizzax", NameUz: "Jizzax", NameAr: "جِيزَاك", Lat: 40.1158, Lon: 67.8422},
	{ID: "navoiy", NameUz: "Navoiy", NameAr: "نَوَاوِي", Lat: 40.0844, Lon: 65.3792},
	{ID: "guliston", NameUz: "Guliston", NameAr: "جُولِيسْتَان", Lat: 40.4897, Lon: 68.7840},
	{ID: "termiz", NameUz: "Termiz", NameAr: "تِرْمِذ", Lat: 37.2242, Lon: 67.2783},
}

// Regions returns a copy of the region catalog in display order.
func Regions() []Region {
	out := make([]Region, len(catalog))
	copy(out, catalog)
	return out
}

// LookupRegion finds a catalog region by id.
func LookupRegion(id string) (Region, bool) {
	for _, r := range catalog {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}
