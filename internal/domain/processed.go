package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PayloadVersion discriminates the shapes a processed-queue payload can take.
type PayloadVersion int

const (
	// PayloadV1 is the flat legacy shape written by older producers. The id
	// may be stored as "id", "complaintId" or "_id" and the municipality as
	// "municipality" or inside "region". Payloads without a "version" field
	// are treated as V1.
	PayloadV1 PayloadVersion = 1
	// PayloadV2 is the current shape written by the promotion stage.
	PayloadV2 PayloadVersion = 2
)

// ProcessedComplaint is the canonical, version-independent view of a
// complaint that is ready for assignment.
type ProcessedComplaint struct {
	Version      PayloadVersion
	ID           string
	Municipality string
	District     string
	Department   string
}

type payloadHeader struct {
	Version *int `json:"version"`
}

type payloadV1 struct {
	ID           string          `json:"id"`
	ComplaintID  string          `json:"complaintId"`
	LegacyID     string          `json:"_id"`
	Municipality string          `json:"municipality"`
	Region       json.RawMessage `json:"region"`
	Department   string          `json:"department"`
}

// id returns the first non-empty of id, complaintId and _id.
func (v payloadV1) id() string {
	for _, id := range []string{v.ID, v.ComplaintID, v.LegacyID} {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	return ""
}

// region returns the municipality and district. A top-level municipality
// wins; otherwise region may be an object or a bare municipality string.
func (v payloadV1) region() (municipality, district string) {
	var obj struct {
		Municipality string `json:"municipality"`
		District     string `json:"district"`
	}
	var name string
	switch {
	case len(v.Region) == 0:
	case json.Unmarshal(v.Region, &obj) == nil:
		district = obj.District
	case json.Unmarshal(v.Region, &name) == nil:
		obj.Municipality = name
	}

	municipality = strings.TrimSpace(v.Municipality)
	if municipality == "" {
		municipality = strings.TrimSpace(obj.Municipality)
	}
	return municipality, district
}

type payloadV2 struct {
	Version    int    `json:"version"`
	ID         string `json:"id"`
	Department string `json:"department"`
	Region     struct {
		Municipality string `json:"municipality"`
		District     string `json:"district,omitempty"`
	} `json:"region"`
}

// NewProcessedComplaint builds the current wire shape from an intake complaint.
func NewProcessedComplaint(c Complaint) ProcessedComplaint {
	return ProcessedComplaint{
		Version:      PayloadV2,
		ID:           c.ID,
		Municipality: strings.TrimSpace(c.Municipality),
		District:     c.District,
		Department:   c.Department,
	}
}

// MarshalJSON always writes the current (V2) shape.
func (p ProcessedComplaint) MarshalJSON() ([]byte, error) {
	var out payloadV2
	out.Version = int(PayloadV2)
	out.ID = p.ID
	out.Department = p.Department
	out.Region.Municipality = p.Municipality
	out.Region.District = p.District
	return json.Marshal(out)
}

// DecodeProcessedComplaint reads the version discriminator and decodes the
// matching shape. It returns ErrMalformedPayload for non-JSON input,
// ErrUnknownPayloadVersion for unsupported versions, ErrMissingField when the
// municipality is absent and ErrMissingID when only the id is absent.
func DecodeProcessedComplaint(raw []byte) (ProcessedComplaint, error) {
	var hdr payloadHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return ProcessedComplaint{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	version := PayloadV1
	if hdr.Version != nil {
		version = PayloadVersion(*hdr.Version)
	}

	var p ProcessedComplaint
	switch version {
	case PayloadV1:
		var v payloadV1
		if err := json.Unmarshal(raw, &v); err != nil {
			return ProcessedComplaint{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		municipality, district := v.region()
		p = ProcessedComplaint{
			Version:      PayloadV1,
			ID:           v.id(),
			Municipality: municipality,
			District:     district,
			Department:   v.Department,
		}
	case PayloadV2:
		var v payloadV2
		if err := json.Unmarshal(raw, &v); err != nil {
			return ProcessedComplaint{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		p = ProcessedComplaint{
			Version:      PayloadV2,
			ID:           v.ID,
			Municipality: strings.TrimSpace(v.Region.Municipality),
			District:     v.Region.District,
			Department:   v.Department,
		}
	default:
		return ProcessedComplaint{}, fmt.Errorf("%w: %d", ErrUnknownPayloadVersion, version)
	}

	if p.Municipality == "" {
		return p, fmt.Errorf("%w: municipality", ErrMissingField)
	}
	if p.ID == "" {
		return p, ErrMissingID
	}
	return p, nil
}
