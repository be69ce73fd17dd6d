package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/marmotdata/icecore/tablemeta"
)

// Identifier names a table inside a catalog as namespace parts plus a
// table name, mirroring the REST catalog protocol's
// {"namespace": [...], "name": "..."} identifiers (spec.md §4.F; see
// also the teacher's RESTTableIdentifier).
type Identifier struct {
	Namespace []string
	Name      string
}

func (id Identifier) String() string {
	s := ""
	for _, n := range id.Namespace {
		s += n + "."
	}
	return s + id.Name
}

// CommitTableRequest is the payload a catalog client sends to commit a
// transaction's staged changes (spec.md §4.F "Catalog commit payload").
type CommitTableRequest struct {
	Identifier   Identifier
	Requirements []TableRequirement
	Updates      []TableUpdate
}

// CommitTableResponse is the catalog's reply: the new metadata plus
// the location it was written to.
type CommitTableResponse struct {
	Metadata         *tablemeta.TableMetadata
	MetadataLocation string
}

type commitRequestWire struct {
	Identifier struct {
		Namespace []string `json:"namespace"`
		Name      string   `json:"name"`
	} `json:"identifier"`
	Requirements []json.RawMessage `json:"requirements"`
	Updates      []json.RawMessage `json:"updates"`
}

// Validate enforces spec.md §4.G's per-kind uniqueness rule: a commit
// may assert at most one requirement of each concrete type and carry
// at most one update of each concrete type, and it must name a
// non-empty table identifier.
func (r CommitTableRequest) Validate() error {
	if r.Identifier.Name == "" {
		return fmt.Errorf("catalog: commit request has no table name")
	}
	seenReq := map[string]bool{}
	for _, req := range r.Requirements {
		t := req.Type()
		if seenReq[t] {
			return fmt.Errorf("catalog: duplicate requirement %q in commit", t)
		}
		seenReq[t] = true
	}
	seenUpd := map[string]bool{}
	for _, u := range r.Updates {
		a := u.Action()
		if seenUpd[a] {
			return fmt.Errorf("catalog: duplicate update %q in commit", a)
		}
		seenUpd[a] = true
	}
	return nil
}

func (r CommitTableRequest) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var w commitRequestWire
	w.Identifier.Namespace = r.Identifier.Namespace
	w.Identifier.Name = r.Identifier.Name

	for _, req := range r.Requirements {
		b, err := marshalRequirement(req)
		if err != nil {
			return nil, err
		}
		w.Requirements = append(w.Requirements, b)
	}
	for _, u := range r.Updates {
		b, err := marshalUpdate(u)
		if err != nil {
			return nil, err
		}
		w.Updates = append(w.Updates, b)
	}
	return json.Marshal(w)
}

func (r *CommitTableRequest) UnmarshalJSON(data []byte) error {
	var w commitRequestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Identifier = Identifier{Namespace: w.Identifier.Namespace, Name: w.Identifier.Name}

	r.Requirements = nil
	for _, raw := range w.Requirements {
		req, err := unmarshalRequirement(raw)
		if err != nil {
			return fmt.Errorf("catalog: parse requirement: %w", err)
		}
		r.Requirements = append(r.Requirements, req)
	}
	r.Updates = nil
	for _, raw := range w.Updates {
		u, err := unmarshalUpdate(raw)
		if err != nil {
			return fmt.Errorf("catalog: parse update: %w", err)
		}
		r.Updates = append(r.Updates, u)
	}
	return r.Validate()
}
