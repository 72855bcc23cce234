package validation

import "testing"

type line struct {
	Method string  `json:"formaPago" validate:"required,metodo_test"`
	Amount float64 `json:"monto" validate:"gt=0"`
}

type payload struct {
	ClientID uint    `json:"clienteId" validate:"required"`
	Amount   float64 `json:"monto" validate:"gt=0"`
	Date     string  `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Lines    []line  `json:"detallesPago" validate:"dive"`
}

func init() {
	if err := RegisterChoice("metodo_test", []string{"Efectivo", "Ret IIBB"}); err != nil {
		panic(err)
	}
}

func TestRegisterChoiceRejectsEmptyTag(t *testing.T) {
	if err := RegisterChoice("", []string{"Efectivo"}); err == nil {
		t.Fatal("expected error for empty tag")
	}
	if _, stored := choiceTags.Load(""); stored {
		t.Fatal("failed registration must not be recorded")
	}
}

func TestBasicValidators(t *testing.T) {
	v := Violations{}
	Required("nombre", "  ", v)
	PositiveFloat("monto", 0, v)
	RangeFloat("pct", 2, 0, 1, v)
	OneOf("tipo", "Recibo", []string{"Factura", "Remito"}, v)
	want := map[string]string{"nombre": "required", "monto": "must_be_positive", "pct": "out_of_range", "tipo": "invalid_choice"}
	for k, c := range want {
		if v[k] != c {
			t.Errorf("%s: got %q want %q", k, v[k], c)
		}
	}
	if !Violations(nil).Empty() {
		t.Fatalf("nil violations should be empty")
	}
}

func TestStruct(t *testing.T) {
	ok := payload{ClientID: 1, Amount: 10, Date: "2024-05-01", Lines: []line{{Method: "Ret IIBB", Amount: 10}}}
	if v := Struct(ok); !v.Empty() {
		t.Fatalf("unexpected violations: %v", v)
	}

	bad := payload{Amount: -1, Date: "01/05/2024", Lines: []line{{Method: "Bitcoin", Amount: 0}}}
	v := Struct(bad)
	want := map[string]string{
		"clienteId":                 "required",
		"monto":                     "must_be_positive",
		"fecha":                     "invalid_date",
		"detallesPago[0].formaPago": "invalid_choice",
		"detallesPago[0].monto":     "must_be_positive",
	}
	for k, c := range want {
		if v[k] != c {
			t.Errorf("%s: got %q want %q (all: %v)", k, v[k], c, v)
		}
	}
}
