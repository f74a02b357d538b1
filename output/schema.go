package output

import (
	"fmt"
	"reflect"
	"strconv"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"
)

// BuildSchema constructs a sparse TileDB array schema for a record type
// carrying `tiledb:"dtype=...,ftype=dim|attr"` struct tags (one `ftype=dim`
// field, any number of `ftype=attr` fields), following the teacher's
// schema.go/tiledb.go struct-tag-to-schema idiom. domainMax is the
// inclusive upper bound of the dimension's domain (e.g. the grid's total
// bin count, or nrows-1 for the BinIndex/SEAGrid sequences).
func BuildSchema(ctx *tiledb.Context, record any, domainMax int64, tileExtent int64) (*tiledb.ArraySchema, error) {
	tdbDefs, err := stgpsr.ParseStruct(record, "tiledb")
	if err != nil {
		return nil, fmt.Errorf("output: parse tiledb tags: %w", err)
	}
	filterDefs, err := stgpsr.ParseStruct(record, "filters")
	if err != nil {
		return nil, fmt.Errorf("output: parse filter tags: %w", err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return nil, fmt.Errorf("output: new array schema: %w", err)
	}

	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, fmt.Errorf("output: new domain: %w", err)
	}
	defer domain.Free()

	values := reflect.ValueOf(record).Elem()
	types := values.Type()

	dimBuilt := false
	for i := 0; i < types.NumField(); i++ {
		name := types.Field(i).Name
		defsByName := fieldDefs(tdbDefs[name])

		ftypeDef, ok := defsByName["ftype"]
		if !ok {
			return nil, fmt.Errorf("output: field %s missing ftype tag", name)
		}
		ftype, _ := ftypeDef.Attribute("ftype")

		dtypeDef, ok := defsByName["dtype"]
		if !ok {
			return nil, fmt.Errorf("output: field %s missing dtype tag", name)
		}
		dtypeName, _ := dtypeDef.Attribute("dtype")
		dtype, err := tiledbDatatype(dtypeName.(string))
		if err != nil {
			return nil, fmt.Errorf("output: field %s: %w", name, err)
		}

		if ftype == "dim" {
			dim, err := tiledb.NewDimension(ctx, name, dtype, []int64{0, domainMax}, tileExtent)
			if err != nil {
				return nil, fmt.Errorf("output: new dimension %s: %w", name, err)
			}
			if err := domain.AddDimensions(dim); err != nil {
				return nil, fmt.Errorf("output: add dimension %s: %w", name, err)
			}
			dimBuilt = true
			continue
		}

		attr, err := tiledb.NewAttribute(ctx, name, dtype)
		if err != nil {
			return nil, fmt.Errorf("output: new attribute %s: %w", name, err)
		}
		if err := applyFilters(ctx, attr, filterDefs[name]); err != nil {
			return nil, fmt.Errorf("output: filters for %s: %w", name, err)
		}
		if err := schema.AddAttributes(attr); err != nil {
			return nil, fmt.Errorf("output: add attribute %s: %w", name, err)
		}
	}

	if !dimBuilt {
		return nil, fmt.Errorf("output: record type %T declares no dimension field", record)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, fmt.Errorf("output: set domain: %w", err)
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, err
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, err
	}

	return schema, nil
}

func fieldDefs(defs []stgpsr.Definition) map[string]stgpsr.Definition {
	out := make(map[string]stgpsr.Definition, len(defs))
	for _, d := range defs {
		out[d.Name()] = d
	}
	return out
}

func tiledbDatatype(name string) (tiledb.Datatype, error) {
	switch name {
	case "int8":
		return tiledb.TILEDB_INT8, nil
	case "uint8":
		return tiledb.TILEDB_UINT8, nil
	case "int16":
		return tiledb.TILEDB_INT16, nil
	case "uint16":
		return tiledb.TILEDB_UINT16, nil
	case "int32":
		return tiledb.TILEDB_INT32, nil
	case "uint32":
		return tiledb.TILEDB_UINT32, nil
	case "int64":
		return tiledb.TILEDB_INT64, nil
	case "uint64":
		return tiledb.TILEDB_UINT64, nil
	case "float32":
		return tiledb.TILEDB_FLOAT32, nil
	case "float64":
		return tiledb.TILEDB_FLOAT64, nil
	default:
		return 0, fmt.Errorf("unsupported tiledb dtype %q", name)
	}
}

func applyFilters(ctx *tiledb.Context, attr *tiledb.Attribute, defs []stgpsr.Definition) error {
	if len(defs) == 0 {
		return nil
	}
	list, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return err
	}
	defer list.Free()

	for _, def := range defs {
		switch def.Name() {
		case "zstd":
			level, ok := def.Attribute("level")
			if !ok {
				return fmt.Errorf("zstd filter missing level")
			}
			lvl, err := filterLevel(level)
			if err != nil {
				return err
			}
			filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
			if err != nil {
				return err
			}
			if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, lvl); err != nil {
				return err
			}
			if err := list.AddFilter(filt); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported filter %q", def.Name())
		}
	}

	return attr.SetFilterList(list)
}

func filterLevel(v any) (int32, error) {
	switch x := v.(type) {
	case int64:
		return int32(x), nil
	case int:
		return int32(x), nil
	case string:
		n, err := strconv.Atoi(x)
		return int32(n), err
	default:
		return 0, fmt.Errorf("unrecognised filter level type %T", v)
	}
}
