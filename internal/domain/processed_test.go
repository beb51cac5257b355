package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ricirt/grievance-queue/internal/domain"
)

func TestDecodeProcessedComplaint(t *testing.T) {
	t.Run("current shape", func(t *testing.T) {
		raw := `{"version":2,"id":"c-1","department":"water","region":{"municipality":" Ranchi ","district":"Ranchi"}}`
		p, err := domain.DecodeProcessedComplaint([]byte(raw))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Version != domain.PayloadV2 || p.ID != "c-1" || p.Municipality != "Ranchi" || p.Department != "water" {
			t.Fatalf("unexpected decode: %+v", p)
		}
	})

	t.Run("legacy shape without version", func(t *testing.T) {
		raw := `{"_id":"legacy-7","municipality":"Dhanbad","department":"roads"}`
		p, err := domain.DecodeProcessedComplaint([]byte(raw))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Version != domain.PayloadV1 || p.ID != "legacy-7" || p.Municipality != "Dhanbad" {
			t.Fatalf("unexpected decode: %+v", p)
		}
	})

	t.Run("legacy shape with explicit version", func(t *testing.T) {
		raw := `{"version":1,"_id":"legacy-8","municipality":"Bokaro"}`
		p, err := domain.DecodeProcessedComplaint([]byte(raw))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ID != "legacy-8" {
			t.Fatalf("expected id legacy-8, got %q", p.ID)
		}
	})

	t.Run("not json", func(t *testing.T) {
		_, err := domain.DecodeProcessedComplaint([]byte("{not json"))
		if !errors.Is(err, domain.ErrMalformedPayload) {
			t.Fatalf("expected ErrMalformedPayload, got %v", err)
		}
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := domain.DecodeProcessedComplaint([]byte(`{"version":9,"id":"x"}`))
		if !errors.Is(err, domain.ErrUnknownPayloadVersion) {
			t.Fatalf("expected ErrUnknownPayloadVersion, got %v", err)
		}
	})

	t.Run("missing municipality", func(t *testing.T) {
		_, err := domain.DecodeProcessedComplaint([]byte(`{"version":2,"id":"c-2"}`))
		if !errors.Is(err, domain.ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
	})

	t.Run("missing id with region", func(t *testing.T) {
		p, err := domain.DecodeProcessedComplaint([]byte(`{"_id":"","municipality":"Ranchi"}`))
		if !errors.Is(err, domain.ErrMissingID) {
			t.Fatalf("expected ErrMissingID, got %v", err)
		}
		if errors.Is(err, domain.ErrMissingField) {
			t.Fatal("a present region must not be reported as a missing field")
		}
		if p.Municipality != "Ranchi" {
			t.Fatalf("expected municipality to survive, got %+v", p)
		}
	})

	t.Run("missing id and region", func(t *testing.T) {
		_, err := domain.DecodeProcessedComplaint([]byte(`{"department":"roads"}`))
		if !errors.Is(err, domain.ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
	})
}

func TestDecodeProcessedComplaint_FlatShapes(t *testing.T) {
	tests := []struct {
		name             string
		raw              string
		wantID           string
		wantMunicipality string
		wantDistrict     string
	}{
		{name: "id", raw: `{"id":"c-1","municipality":"Ranchi","department":"water"}`, wantID: "c-1", wantMunicipality: "Ranchi"},
		{name: "complaintId", raw: `{"complaintId":"c-2","municipality":"Dhanbad"}`, wantID: "c-2", wantMunicipality: "Dhanbad"},
		{name: "_id", raw: `{"_id":"c-3","municipality":"Bokaro"}`, wantID: "c-3", wantMunicipality: "Bokaro"},
		{name: "id wins over complaintId and _id", raw: `{"id":"a","complaintId":"b","_id":"c","municipality":"Ranchi"}`, wantID: "a", wantMunicipality: "Ranchi"},
		{name: "complaintId wins over _id", raw: `{"id":"","complaintId":"b","_id":"c","municipality":"Ranchi"}`, wantID: "b", wantMunicipality: "Ranchi"},
		{name: "region object", raw: `{"id":"c-4","region":{"municipality":"Deoghar","district":"Deoghar"}}`, wantID: "c-4", wantMunicipality: "Deoghar", wantDistrict: "Deoghar"},
		{name: "region string", raw: `{"id":"c-5","region":" Chas "}`, wantID: "c-5", wantMunicipality: "Chas"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := domain.DecodeProcessedComplaint([]byte(tc.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ID != tc.wantID || p.Municipality != tc.wantMunicipality || p.District != tc.wantDistrict {
				t.Fatalf("unexpected decode: %+v", p)
			}
		})
	}
}

func TestProcessedComplaint_MarshalWritesCurrentShape(t *testing.T) {
	p := domain.NewProcessedComplaint(domain.Complaint{
		ID:           "c-3",
		Municipality: "Jamshedpur",
		District:     "East Singhbhum",
		Department:   "sanitation",
	})

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	back, err := domain.DecodeProcessedComplaint(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back != p {
		t.Fatalf("expected %+v, got %+v", p, back)
	}
}

func TestRegions_Allowed(t *testing.T) {
	r := domain.NewRegions("Ranchi", " Dhanbad ", "", "Jamshedpur")

	if r.Len() != 3 {
		t.Fatalf("expected 3 regions, got %d", r.Len())
	}
	for _, name := range []string{"Ranchi", "ranchi", "DHANBAD", " Jamshedpur"} {
		if !r.Allowed(name) {
			t.Fatalf("expected %q to be allowed", name)
		}
	}
	for _, name := range []string{"Mars", "", "Ranch"} {
		if r.Allowed(name) {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestComplaint_Validate(t *testing.T) {
	valid := domain.Complaint{Title: "Broken pipe", Description: "Leak on main road", Municipality: "Ranchi"}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	c := valid
	c.Municipality = "  "
	if err := c.Validate(); err != domain.ErrInvalidComplaint {
		t.Fatalf("expected ErrInvalidComplaint, got %v", err)
	}

	c = valid
	c.Title = ""
	if err := c.Validate(); err != domain.ErrInvalidComplaint {
		t.Fatalf("expected ErrInvalidComplaint, got %v", err)
	}
}

func TestUser_Validate(t *testing.T) {
	u := domain.User{Name: "Asha", Phone: "+919800000000"}
	if err := u.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	u.Phone = ""
	if err := u.Validate(); err != domain.ErrInvalidUser {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}
