package querybuilder

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// modelRow is one struct flattened into its db-tagged columns.
type modelRow struct {
	columns []string
	values  []any
}

func InsertModel(table string, model any, suffix string) (string, []any, error) {
	row, err := rowFromModel(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(row.columns...).
		Values(row.values...).
		Suffix(suffix).
		ToSQL()
}

// UpsertModel inserts model and, on a conflict over the conflict columns,
// overwrites every other column except those listed in keep.
func UpsertModel(table string, model any, conflict []string, keep ...string) (string, []any, error) {
	if len(conflict) == 0 {
		return "", nil, fmt.Errorf("upsert conflict columns are required")
	}
	row, err := rowFromModel(model)
	if err != nil {
		return "", nil, err
	}

	updates := make([]string, 0, len(row.columns))
	for _, col := range row.columns {
		if slices.Contains(conflict, col) || slices.Contains(keep, col) {
			continue
		}
		updates = append(updates, col+" = excluded."+col)
	}

	suffix := "ON CONFLICT (" + strings.Join(conflict, ", ") + ") DO NOTHING"
	if len(updates) > 0 {
		suffix = "ON CONFLICT (" + strings.Join(conflict, ", ") + ") DO UPDATE SET " + strings.Join(updates, ", ")
	}

	return InsertInto(table).
		Columns(row.columns...).
		Values(row.values...).
		Suffix(suffix).
		ToSQL()
}

func rowFromModel(model any) (modelRow, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return modelRow{}, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return modelRow{}, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	row := modelRow{
		columns: make([]string, 0, typ.NumField()),
		values:  make([]any, 0, typ.NumField()),
	}
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		row.columns = append(row.columns, col)
		row.values = append(row.values, value.Field(i).Interface())
	}

	if len(row.columns) == 0 {
		return modelRow{}, fmt.Errorf("model %s has no db columns", typ.Name())
	}
	return row, nil
}
