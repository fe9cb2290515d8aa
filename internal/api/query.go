package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"taskhive/pkg/search"
)

// parseQuery reads q, repeated filter=field:op:value[:upper], sort and desc.
// Numeric and boolean filter values are converted so they compare against
// numeric and boolean fields.
func parseQuery(r *http.Request, textFields []string) (search.Query, error) {
	v := r.URL.Query()
	q := search.Query{
		Text:       v.Get("q"),
		TextFields: textFields,
	}
	for _, raw := range v["filter"] {
		parts := strings.SplitN(raw, ":", 4)
		if len(parts) < 3 {
			return q, fmt.Errorf("filter %q: want field:op:value", raw)
		}
		op, err := search.ParseOp(parts[1])
		if err != nil {
			return q, err
		}
		f := search.Filter{Field: parts[0], Op: op, Value: scalar(parts[2])}
		if op == search.Between {
			if len(parts) != 4 {
				return q, fmt.Errorf("filter %q: between needs an upper bound", raw)
			}
			f.Upper = scalar(parts[3])
		} else if len(parts) == 4 {
			f.Value = scalar(parts[2] + ":" + parts[3])
		}
		q.Filters = append(q.Filters, f)
	}
	if field := v.Get("sort"); field != "" {
		q.Sort = &search.Sort{Field: field, Desc: queryBool(r, "desc")}
	}
	return q, nil
}

func scalar(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
