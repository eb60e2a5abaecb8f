package digest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/obhavo-bot/internal/common"
	"github.com/i474232898/obhavo-bot/internal/user"
	"github.com/i474232898/obhavo-bot/internal/weather"
)

const (
	placeholder = "--"
	separator   = "━━━━━━━━━━━━━━━━━━━━"

	defaultSunrise = "07:00"
	defaultSunset  = "17:30"
)

var (
	monthsUz = [12]string{"yanvar", "fevral", "mart", "aprel", "may", "iyun", "iyul", "avgust", "sentyabr", "oktyabr", "noyabr", "dekabr"}
	monthsAr = [12]string{"يَنَايِر", "فِبْرَايِر", "مَارِس", "أَبْرِيل", "مَايُو", "يُونِيُو", "يُولِيُو", "أَغُسْطُس", "سِبْتَمْبَر", "أُكْتُوبَر", "نُوفَمْبَر", "دِيسَمْبَر"}

	htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// Options configures a Renderer.
type Options struct {
	// Location is the canonical timezone used for the date header.
	Location *time.Location
	// FeaturedRegion is rendered in detail under the header. Empty disables it.
	FeaturedRegion string
	// DetailsURL is the target of the call-to-action button. Empty omits it.
	DetailsURL string
	Quotes     []Quote
}

// Renderer builds digests. It performs no I/O and holds no mutable state,
// so identical inputs always produce identical output.
type Renderer struct {
	regions []weather.Region
	opts    Options
}

func NewRenderer(regions []weather.Region, opts Options) *Renderer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Quotes == nil {
		opts.Quotes = DefaultQuotes()
	}
	return &Renderer{regions: regions, opts: opts}
}

// Render produces the digest for now from the given snapshots keyed by
// region id. Regions without a snapshot are rendered with placeholders.
func (r *Renderer) Render(now time.Time, snapshots map[string]weather.Snapshot) Message {
	local := now.In(r.opts.Location)

	var b strings.Builder
	b.WriteString("☀️ <b>Ob-havo | الطَّقْس</b> ☀️\n")
	fmt.Fprintf(&b, "📅 %d %s | %d %s\n",
		local.Day(), monthsUz[local.Month()-1], local.Day(), monthsAr[local.Month()-1])

	if featured, ok := weather.LookupRegion(r.opts.FeaturedRegion); ok {
		b.WriteString("\n")
		snap, have := snapshots[featured.ID]
		r.writeFeatured(&b, local, featured, snap, have)
	}

	b.WriteString("\n" + separator + "\n")
	for _, region := range r.regions {
		snap, have := snapshots[region.ID]
		b.WriteString(regionLine(local, region, snap, have))
		b.WriteString("\n")
	}

	if q, ok := QuoteOfDay(r.opts.Quotes, local); ok {
		b.WriteString(separator + "\n")
		fmt.Fprintf(&b, "💡 <i>%s | %s</i>", esc(q.Uz), esc(q.Ar))
	}

	msg := Message{Text: strings.TrimRight(b.String(), "\n")}
	if r.opts.DetailsURL != "" {
		msg.Buttons = []Button{{Text: "📱 Batafsil", URL: r.opts.DetailsURL}}
	}
	return msg
}

func (r *Renderer) writeFeatured(b *strings.Builder, local time.Time, region weather.Region, snap weather.Snapshot, have bool) {
	fmt.Fprintf(b, "<b>📍 %s | %s</b>\n", esc(region.NameUz), esc(region.NameAr))
	if !have {
		fmt.Fprintf(b, "%s %s°/%s° | %s\n", Emoji(""), placeholder, placeholder, placeholder)
		fmt.Fprintf(b, "🌡 Hozir: %s° | 💨 %s m/s | 💧 %s%%\n", placeholder, placeholder, placeholder)
		return
	}

	hi, lo := dayRange(local, snap)
	fmt.Fprintf(b, "%s %d°/%d° | %s\n", Emoji(snap.Condition), hi, lo, esc(snap.Condition))
	fmt.Fprintf(b, "🌡 Hozir: %d° | 💨 %d m/s | 💧 %d%%\n", snap.Temperature, snap.WindSpeed, snap.Humidity)

	if len(snap.Forecast.Hourly) > 0 {
		slots := []string{"07:00", "13:00", "19:00"}
		parts := make([]string, 0, len(slots))
		for _, slot := range slots {
			t, ok := snap.Forecast.TempAt(slot)
			if !ok {
				t = snap.Temperature
			}
			parts = append(parts, fmt.Sprintf("%s %d°", slot, t))
		}
		fmt.Fprintf(b, "🕖 %s\n", strings.Join(parts, " | "))
	}

	sunrise, sunset := defaultSunrise, defaultSunset
	if today, ok := snap.Forecast.Today(local); ok {
		sunrise = common.OrDefault(today.Sunrise, defaultSunrise)
		sunset = common.OrDefault(today.Sunset, defaultSunset)
	}
	fmt.Fprintf(b, "🌅 %s ↔ %s\n", sunrise, sunset)
}

func regionLine(local time.Time, region weather.Region, snap weather.Snapshot, have bool) string {
	if !have {
		return fmt.Sprintf("%s %s | %s: %s°/%s°", Emoji(""), esc(region.NameUz), esc(region.NameAr), placeholder, placeholder)
	}
	hi, lo := dayRange(local, snap)
	return fmt.Sprintf("%s %s | %s: %d°/%d°", Emoji(snap.Condition), esc(region.NameUz), esc(region.NameAr), hi, lo)
}

// dayRange returns today's max and min, estimated from the current
// temperature when the forecast has no entry for today.
func dayRange(local time.Time, snap weather.Snapshot) (hi, lo int) {
	if today, ok := snap.Forecast.Today(local); ok {
		return today.Max, today.Min
	}
	return snap.Temperature + 2, snap.Temperature - 3
}

// Emoji picks an icon from an Uzbek condition label.
func Emoji(condition string) string {
	switch {
	case common.ContainsAny(condition, "momaqaldiroq", "do'l"):
		return "⛈"
	case common.ContainsAny(condition, "qor"):
		return "❄️"
	case common.ContainsAny(condition, "yomg'ir", "yog'in"):
		return "🌧"
	case common.ContainsAny(condition, "tuman"):
		return "🌫"
	case common.ContainsAny(condition, "biroz bulut"):
		return "⛅"
	case common.ContainsAny(condition, "bulut"):
		return "☁️"
	case common.ContainsAny(condition, "ochiq", "quyosh"):
		return "☀️"
	default:
		return "🌤"
	}
}

// RenderRegion renders the single-region reply for a user in their language.
func (r *Renderer) RenderRegion(now time.Time, lang user.Lang, region weather.Region, snap weather.Snapshot, have bool) Message {
	var b strings.Builder
	if lang == user.LangArabic {
		fmt.Fprintf(&b, "🌡 <b>%s</b>\n\n", esc(region.NameAr))
		if !have {
			b.WriteString("لا تتوفر بيانات الطقس حالياً")
		} else {
			cond := snap.Forecast.ConditionAr
			if cond == "" {
				cond = snap.Condition
			}
			fmt.Fprintf(&b, "درجة الحرارة: %d°C\nالحالة: %s %s\nالرطوبة: %d%%\nالرياح: %d m/s",
				snap.Temperature, Emoji(snap.Condition), esc(cond), snap.Humidity, snap.WindSpeed)
		}
	} else {
		fmt.Fprintf(&b, "🌡 <b>%s</b>\n\n", esc(region.NameUz))
		if !have {
			b.WriteString("Ob-havo ma'lumoti hozircha mavjud emas")
		} else {
			fmt.Fprintf(&b, "Harorat: %d°C\nHolat: %s %s\nNamlik: %d%%\nShamol: %d m/s",
				snap.Temperature, Emoji(snap.Condition), esc(snap.Condition), snap.Humidity, snap.WindSpeed)
		}
	}
	if have {
		if today, ok := snap.Forecast.Today(now.In(r.opts.Location)); ok {
			b.WriteString("\n📈 " + strconv.Itoa(today.Max) + "° / 📉 " + strconv.Itoa(today.Min) + "°")
		}
	}

	msg := Message{Text: b.String()}
	if r.opts.DetailsURL != "" {
		msg.Buttons = []Button{{Text: "📱 Batafsil", URL: r.opts.DetailsURL}}
	}
	return msg
}

func esc(s string) string {
	return htmlEscaper.Replace(s)
}
