package user

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/classbook/core"
)

type Role string

// Roles
const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

var (
	Roles = []Role{RoleTeacher, RoleStudent, RoleParent}

	hashCost = bcrypt.DefaultCost // mockable
)

func ParseRole(s string) (Role, error) {
	r := Role(core.CleanString(s, true /* lower */))
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// Account is a fixed demo login.
type Account struct {
	Username     string `json:"username"`
	Role         Role   `json:"role"`
	PasswordHash []byte `json:"-"`
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), hashCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// Person holds the details shared by every profile.
type Person struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
}

func (p Person) FullName() string {
	return core.CleanString(p.FirstName + " " + p.LastName)
}

type TeacherProfile struct {
	Person
	EmployeeID string `json:"employee_id"`
	Department string `json:"department"`
}

type StudentProfile struct {
	Person
	Class      string `json:"class"`
	RollNumber string `json:"roll_number"`
}

type ParentProfile struct {
	Person
	Wards []Ward `json:"wards"`
}

// Ward is a student linked to a parent account.
type Ward struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	Section string `json:"section"`
}

// Profile is a tagged union: exactly the variant named by Role is set.
type Profile struct {
	Role    Role            `json:"role"`
	Teacher *TeacherProfile `json:"teacher,omitempty"`
	Student *StudentProfile `json:"student,omitempty"`
	Parent  *ParentProfile  `json:"parent,omitempty"`
}

func NewTeacherProfile(p TeacherProfile) Profile { return Profile{Role: RoleTeacher, Teacher: &p} }
func NewStudentProfile(p StudentProfile) Profile { return Profile{Role: RoleStudent, Student: &p} }
func NewParentProfile(p ParentProfile) Profile   { return Profile{Role: RoleParent, Parent: &p} }

// Check reports whether exactly the variant matching Role is set.
func (p Profile) Check() error {
	set := 0
	for _, ok := range []bool{p.Teacher != nil, p.Student != nil, p.Parent != nil} {
		if ok {
			set++
		}
	}
	var match bool
	switch p.Role {
	case RoleTeacher:
		match = p.Teacher != nil
	case RoleStudent:
		match = p.Student != nil
	case RoleParent:
		match = p.Parent != nil
	}
	if set != 1 || !match {
		return ErrInvalidProfile
	}
	return nil
}

func (p Profile) Person() Person {
	switch {
	case p.Teacher != nil:
		return p.Teacher.Person
	case p.Student != nil:
		return p.Student.Person
	case p.Parent != nil:
		return p.Parent.Person
	}
	return Person{}
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	out := Profile{Role: p.Role}
	if p.Teacher != nil {
		t := *p.Teacher
		out.Teacher = &t
	}
	if p.Student != nil {
		s := *p.Student
		out.Student = &s
	}
	if p.Parent != nil {
		par := *p.Parent
		par.Wards = append([]Ward(nil), p.Parent.Wards...)
		out.Parent = &par
	}
	return out
}

// UpdateProfile defines what information may be provided to modify a Profile.
// Department only applies to teachers; it is ignored for other roles.
type UpdateProfile struct {
	FirstName   string  `json:"first_name" validate:"required,notblank,max=50"`
	LastName    string  `json:"last_name" validate:"required,notblank,max=50"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       string  `json:"phone" validate:"omitempty,phone"`
	Address     string  `json:"address" validate:"omitempty,max=200"`
	DateOfBirth string  `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
}

func (up *UpdateProfile) clean() {
	up.FirstName = core.CleanString(up.FirstName)
	up.LastName = core.CleanString(up.LastName)
	up.Email = core.CleanString(up.Email, true /* lower */)
	up.Phone = core.CleanString(up.Phone)
	up.Address = core.CleanString(up.Address)
	up.DateOfBirth = core.CleanString(up.DateOfBirth)
	if up.Department != nil {
		dept := core.CleanString(*up.Department)
		up.Department = &dept
	}
}

// apply writes the update onto a copy of p.
func (up UpdateProfile) apply(p Profile) Profile {
	out := p.Clone()
	person := Person{
		FirstName:   up.FirstName,
		LastName:    up.LastName,
		Email:       up.Email,
		Phone:       up.Phone,
		Address:     up.Address,
		DateOfBirth: up.DateOfBirth,
	}
	switch out.Role {
	case RoleTeacher:
		out.Teacher.Person = person
		if up.Department != nil {
			out.Teacher.Department = *up.Department
		}
	case RoleStudent:
		out.Student.Person = person
	case RoleParent:
		out.Parent.Person = person
	}
	return out
}
