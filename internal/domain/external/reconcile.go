// Package external bridges the upstream hospital systems and the local
// registry: searching upstream records, reconciling them against imported
// rows, and importing them on demand.
package external

import (
	"strings"

	"github.com/ripac/ripac/internal/domain/registry"
	"github.com/ripac/ripac/internal/platform/hospital"
)

// LocalDoctor is the snapshot of an already-imported doctor attached to a
// reconciled upstream record.
type LocalDoctor struct {
	FullName string `json:"fullName"`
}

// ReconciledParamedic is an upstream practitioner annotated with its local
// import state. Computed per request, never persisted.
type ReconciledParamedic struct {
	hospital.Paramedic
	IsImported  bool         `json:"isImported"`
	IsDifferent bool         `json:"isDifferent"`
	LocalData   *LocalDoctor `json:"localData"`
}

// usableName reports whether an upstream name is worth showing. Upstream
// exports contain placeholder rows with blank or "-" names.
func usableName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && trimmed != "-"
}

// FilterParamedics drops upstream rows with unusable names. Order is
// preserved; the input slice is not modified.
func FilterParamedics(items []hospital.Paramedic) []hospital.Paramedic {
	out := make([]hospital.Paramedic, 0, len(items))
	for _, item := range items {
		if usableName(item.Name) {
			out = append(out, item)
		}
	}
	return out
}

// ReconcileParamedics annotates upstream rows with their local import state.
// A row is imported when a local doctor carries its code, and different when
// the stored full name is not an exact match of the upstream name.
func ReconcileParamedics(items []hospital.Paramedic, local []*registry.Doctor) []ReconciledParamedic {
	byCode := make(map[string]*registry.Doctor, len(local))
	for _, d := range local {
		byCode[d.Code] = d
	}

	out := make([]ReconciledParamedic, 0, len(items))
	for _, item := range items {
		rec := ReconciledParamedic{Paramedic: item}
		if d, ok := byCode[item.ParamedicCode]; ok {
			rec.IsImported = true
			rec.IsDifferent = d.FullName != item.Name
			rec.LocalData = &LocalDoctor{FullName: d.FullName}
		}
		out = append(out, rec)
	}
	return out
}

// Codes extracts the upstream paramedic codes from a filtered page, bounding
// the local lookup to the rows actually shown.
func Codes(items []hospital.Paramedic) []string {
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.ParamedicCode)
	}
	return codes
}
