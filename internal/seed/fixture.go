// Package seed loads demo employees and projects from a YAML fixture and
// fills a month with timesheets in every state.
package seed

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/locvowork/hrms/internal/domain"
	"gopkg.in/yaml.v2"
)

// namespace derives stable ids from employee codes and project names so
// seeding twice does not duplicate records.
var namespace = uuid.MustParse("6f1c2f8e-5b1d-4d7a-9a59-2d0f6c3e8b11")

// Fixture is the content of the seed file.
type Fixture struct {
	Employees []EmployeeSeed `yaml:"employees"`
	Projects  []ProjectSeed  `yaml:"projects"`
	Tasks     []string       `yaml:"tasks"`
}

// EmployeeSeed describes one employee. Manager is the employee code of the
// reporting manager.
type EmployeeSeed struct {
	Code           string   `yaml:"code"`
	FirstName      string   `yaml:"first_name"`
	LastName       string   `yaml:"last_name"`
	Email          string   `yaml:"email"`
	Department     string   `yaml:"department"`
	JobRole        string   `yaml:"job_role"`
	EmploymentType string   `yaml:"employment_type"`
	JoinedOn       string   `yaml:"joined_on"`
	Manager        string   `yaml:"manager"`
	Roles          []string `yaml:"roles"`
}

type ProjectSeed struct {
	Name        string `yaml:"name"`
	Client      string `yaml:"client"`
	BillingType string `yaml:"billing_type"`
	Status      string `yaml:"status"`
	Description string `yaml:"description"`
}

// LoadFixture reads and parses the YAML file at path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses a YAML fixture and checks that manager references
// resolve.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	codes := make(map[string]bool, len(f.Employees))
	for _, e := range f.Employees {
		if e.Code == "" {
			return nil, fmt.Errorf("seed employee %q has no code", e.FirstName)
		}
		if codes[e.Code] {
			return nil, fmt.Errorf("seed employee code %s is used twice", e.Code)
		}
		codes[e.Code] = true
	}
	for _, e := range f.Employees {
		if e.Manager != "" && !codes[e.Manager] {
			return nil, fmt.Errorf("seed employee %s reports to unknown code %s", e.Code, e.Manager)
		}
	}
	if len(f.Tasks) == 0 {
		f.Tasks = []string{"Development", "Code review", "Meetings"}
	}
	return &f, nil
}

// EmployeeID is the stable id of the employee with code.
func EmployeeID(code string) string {
	return uuid.NewSHA1(namespace, []byte("employee:"+code)).String()
}

// ProjectID is the stable id of the project called name.
func ProjectID(name string) string {
	return uuid.NewSHA1(namespace, []byte("project:"+strings.ToLower(name))).String()
}

func (e EmployeeSeed) toDomain(now time.Time) (domain.Employee, error) {
	joined := now
	if e.JoinedOn != "" {
		d, err := time.Parse("2006-01-02", e.JoinedOn)
		if err != nil {
			return domain.Employee{}, fmt.Errorf("employee %s: joined_on: %w", e.Code, err)
		}
		joined = d
	}
	emp := domain.Employee{
		ID:             EmployeeID(e.Code),
		EmployeeCode:   e.Code,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Email:          e.Email,
		Department:     e.Department,
		JobRole:        e.JobRole,
		EmploymentType: e.EmploymentType,
		DateOfJoining:  joined,
	}
	if emp.EmploymentType == "" {
		emp.EmploymentType = "full_time"
	}
	if e.Manager != "" {
		id := EmployeeID(e.Manager)
		emp.ReportingManagerID = &id
	}
	for _, r := range e.Roles {
		emp.Roles = append(emp.Roles, domain.Role(r))
	}
	return emp, nil
}

func (p ProjectSeed) toDomain(now time.Time) domain.Project {
	proj := domain.Project{
		ID:          ProjectID(p.Name),
		Name:        p.Name,
		Client:      p.Client,
		BillingType: p.BillingType,
		Status:      domain.ProjectStatus(p.Status),
		StartDate:   time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		Description: p.Description,
		CreatedAt:   now,
	}
	if proj.BillingType == "" {
		proj.BillingType = "billable"
	}
	if proj.Status == "" {
		proj.Status = domain.ProjectActive
	}
	return proj
}
