package enhance_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-docfill/pkg/enhance"
	"github.com/goliatone/go-docfill/pkg/model"
)

func catalog() []model.ConfigurableDataType {
	return []model.ConfigurableDataType{
		{Code: "id_number", Name: "เลขประจำตัวประชาชน", InputType: "digit", DefaultValue: "x-xxxx-xxxxx-xx-x", Validation: `{"maxLength":13}`},
		{Code: "province", Name: "จังหวัด", InputType: "select", Options: `["กรุงเทพมหานคร","เชียงใหม่"]`},
		{Code: "address", Name: "ที่อยู่", InputType: "location", DefaultValue: "{province}"},
		{Code: "prefix", Name: "คำนำหน้า", InputType: "select", Options: `[{"value":"นาย"},{"label":"นาง"}]`},
		{Code: "broken", Name: "Broken", Options: `[`, Validation: `{`},
	}
}

func TestEnhance_AppliesCatalogDefaults(t *testing.T) {
	maxLength := 13
	defs := model.Definitions{
		"id":       {Placeholder: "id", DataType: "id_number"},
		"province": {Placeholder: "province", DataType: "province", Validation: &model.Validation{Options: []string{"ภูเก็ต", "เชียงใหม่"}}},
		"addr":     {Placeholder: "addr", DataType: "address", InputType: model.InputTypeLocation},
		"prefix":   {Placeholder: "prefix", DataType: "prefix"},
		"plain":    {Placeholder: "plain", DataType: "text"},
	}

	got := enhance.Enhance(defs, catalog())

	want := model.Definitions{
		"id": {
			Placeholder:   "id",
			DataType:      "id_number",
			InputType:     model.InputTypeDigit,
			DigitFormat:   "x-xxxx-xxxxx-xx-x",
			Validation:    &model.Validation{MaxLength: &maxLength},
			DataTypeLabel: "เลขประจำตัวประชาชน",
		},
		"province": {
			Placeholder:   "province",
			DataType:      "province",
			InputType:     model.InputTypeSelect,
			Validation:    &model.Validation{Options: []string{"ภูเก็ต", "เชียงใหม่", "กรุงเทพมหานคร"}},
			DataTypeLabel: "จังหวัด",
		},
		"addr": {
			Placeholder:          "addr",
			DataType:             "address",
			InputType:            model.InputTypeLocation,
			LocationOutputFormat: "{province}",
			DataTypeLabel:        "ที่อยู่",
		},
		"prefix": {
			Placeholder:   "prefix",
			DataType:      "prefix",
			InputType:     model.InputTypeSelect,
			Validation:    &model.Validation{Options: []string{"นาย", "นาง"}},
			DataTypeLabel: "คำนำหน้า",
		},
		"plain": {Placeholder: "plain", DataType: "text"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("enhanced definitions mismatch (-want +got):\n%s", diff)
	}
}

func TestEnhance_ExplicitValuesWin(t *testing.T) {
	explicit := 5
	defs := model.Definitions{
		"id": {
			Placeholder:   "id",
			DataType:      "id_number",
			InputType:     model.InputTypeDigit,
			DigitFormat:   "xxx",
			DataTypeLabel: "custom",
			Validation:    &model.Validation{MaxLength: &explicit},
		},
	}

	got := enhance.Enhance(defs, catalog())["id"]
	if got.DigitFormat != "xxx" || got.DataTypeLabel != "custom" || *got.Validation.MaxLength != 5 {
		t.Fatalf("explicit values overwritten: %+v", got)
	}
}

func TestEnhance_IsIdempotentAndPure(t *testing.T) {
	defs := model.Definitions{
		"province": {Placeholder: "province", DataType: "province"},
		"id":       {Placeholder: "id", DataType: "id_number"},
	}
	before := defs.Clone()

	once := enhance.Enhance(defs, catalog())
	twice := enhance.Enhance(once, catalog())

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second pass changed output (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(before, defs); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
}

func TestEnhance_MalformedCatalogIsSkippedPerField(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	defs := model.Definitions{
		"bad":  {Placeholder: "bad", DataType: "broken", InputType: model.InputTypeSelect},
		"good": {Placeholder: "good", DataType: "province"},
	}

	got := enhance.Enhance(defs, catalog(), enhance.WithLogger(zap.New(core)))

	if got["bad"].DataTypeLabel != "Broken" {
		t.Fatalf("expected label despite malformed json, got %+v", got["bad"])
	}
	if got["bad"].Validation != nil {
		t.Fatalf("expected no validation from malformed catalog, got %+v", got["bad"].Validation)
	}
	if len(got["good"].Validation.Options) != 2 {
		t.Fatalf("expected good field enhanced, got %+v", got["good"])
	}
	if logs.Len() != 2 {
		t.Fatalf("expected two warnings, got %d", logs.Len())
	}
}

func TestEnhancer_AsDecorator(t *testing.T) {
	defs := model.Definitions{"id": {Placeholder: "id", DataType: "id_number"}}
	out, err := model.Chain(defs, enhance.New(catalog()))
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if out["id"].DigitFormat == "" {
		t.Fatalf("expected decorator to apply catalog defaults")
	}
}
