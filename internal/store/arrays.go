package store

import (
	"database/sql"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"
)

// database/sql cannot scan PostgreSQL arrays on its own; the pgx type map
// can. A Map caches encode/decode plans and is not safe for concurrent use,
// so maps are pooled.
var typeMaps = sync.Pool{New: func() any { return pgtype.NewMap() }}

// textArray returns a scanner that decodes a text[] column into dst. NULL
// becomes an empty slice.
func textArray(dst *[]string) sql.Scanner {
	return &textArrayScanner{dst: dst}
}

type textArrayScanner struct {
	dst *[]string
}

func (s *textArrayScanner) Scan(src any) error {
	m := typeMaps.Get().(*pgtype.Map)
	defer typeMaps.Put(m)

	var out []string
	if err := m.SQLScanner(&out).Scan(src); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*s.dst = out
	return nil
}
