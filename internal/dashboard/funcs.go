package dashboard

import (
	"encoding/json"
	"html/template"
	"strconv"

	"github.com/blueox/schedule/internal/schedule"
)

var templateFuncs = template.FuncMap{
	"label": schedule.StatusLabel,
	"str": func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	},
	"num": func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	},
	"add": func(a, b int) int { return a + b },
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return "{}"
		}
		return string(b)
	},
	"pageURL": func(st schedule.TableState, page int) string {
		st.SetPage(page)
		return "/?" + st.Values().Encode()
	},
	"sortURL": func(st schedule.TableState, key string) string {
		st.ToggleSort(schedule.SortKey(key))
		st.SetPage(0)
		return "/?" + st.Values().Encode()
	},
}
