// Package models defines the identity record tracked by the gateway and the
// fixed institutional constants stamped onto every record.
package models

import (
	"time"

	"github.com/google/uuid"

	"carteirinha/pkg/domain"
)

// Constants injected by the system, never user-supplied.
const (
	Institution     = "FGV"
	InstitutionFull = "FUNDAÇÃO GETULIO VARGAS"
	Level           = "PÓS GRADUAÇÃO"
	Validity        = "31/03/2026"
)

// Courses is the fixed program catalog. Registration rejects anything else.
var Courses = []string{
	"Administração de Empresas",
	"Administração Pública",
	"Economia",
	"Direito",
	"Matemática Aplicada",
	"Ciência de Dados e Inteligência Artificial",
	"Relações Internacionais",
	"Ciências Sociais",
	"Tecnologia em Gestão Pública",
	"Tecnologia em Processos Gerenciais",
}

// ValidCourse reports whether name belongs to the catalog.
func ValidCourse(name string) bool {
	for _, c := range Courses {
		if c == name {
			return true
		}
	}
	return false
}

// Student is the identity record. CPF is the unique key and immutable once
// the record exists; Matricula and UsageCode are assigned at creation and
// never regenerated. JSON tags carry the client-side (camelCase) convention;
// the postgres store maps to snake_case columns.
type Student struct {
	ID          uuid.UUID  `json:"id"`
	CPF         domain.CPF `json:"cpf"`
	Name        string     `json:"name"`
	RG          string     `json:"rg"`
	BirthDate   string     `json:"birthDate"`
	Course      string     `json:"course"`
	PhotoURL    string     `json:"photoUrl"`
	Institution string     `json:"institution"`
	Level       string     `json:"level"`
	Matricula   string     `json:"matricula"`
	UsageCode   string     `json:"usageCode"`
	Validity    string     `json:"validity"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StudentPatch carries the sparse update payload. Nil fields are left
// untouched, not nulled. CPF, Matricula and UsageCode deliberately have no
// representation here: the edit path cannot change them.
type StudentPatch struct {
	Name      *string
	RG        *string
	BirthDate *string
	Course    *string
	PhotoURL  *string
}

// IsEmpty reports whether the patch carries no fields at all.
func (p StudentPatch) IsEmpty() bool {
	return p.Name == nil && p.RG == nil && p.BirthDate == nil && p.Course == nil && p.PhotoURL == nil
}
