package user

import "github.com/pkg/errors"

// DemoPasswords are the fixed credentials of the demo accounts.
var DemoPasswords = map[Role]string{
	RoleTeacher: "teacher123",
	RoleStudent: "student123",
	RoleParent:  "parent123",
}

// DemoAccounts builds the demo accounts. A non-empty hash in hashes replaces the default password of that role.
func DemoAccounts(hashes map[Role]string) ([]Account, error) {
	accounts := make([]Account, 0, len(Roles))
	for _, role := range Roles {
		acc := Account{Username: string(role), Role: role}
		if hash := hashes[role]; hash != "" {
			acc.PasswordHash = []byte(hash)
		} else if err := acc.SetPassword(DemoPasswords[role]); err != nil {
			return nil, errors.Wrapf(err, "hashing %s password", role)
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// DemoProfiles returns the profiles of the demo accounts keyed by username.
func DemoProfiles() map[string]Profile {
	address := "123 Education Street, Learning City, LC 12345"
	return map[string]Profile{
		string(RoleTeacher): NewTeacherProfile(TeacherProfile{
			Person: Person{
				FirstName:   "Sarah",
				LastName:    "Johnson",
				Email:       "sarah.johnson@school.edu",
				Phone:       "+1 (555) 123-4567",
				Address:     address,
				DateOfBirth: "1985-06-15",
			},
			EmployeeID: "TCH-2024-001",
			Department: "Primary Education",
		}),
		string(RoleStudent): NewStudentProfile(StudentProfile{
			Person: Person{
				FirstName:   "Rahul",
				LastName:    "Kumar",
				Email:       "student@school.edu",
				Phone:       "+1 (555) 123-4568",
				Address:     address,
				DateOfBirth: "2016-02-11",
			},
			Class:      "Class 1",
			RollNumber: "001",
		}),
		string(RoleParent): NewParentProfile(ParentProfile{
			Person: Person{
				FirstName:   "Anita",
				LastName:    "Kumar",
				Email:       "parent@school.edu",
				Phone:       "+1 (555) 123-4569",
				Address:     address,
				DateOfBirth: "1984-09-30",
			},
			Wards: []Ward{
				{ID: "1", Name: "Rahul Kumar", Class: "Grade 3", Section: "A"},
				{ID: "2", Name: "Priya Kumar", Class: "Grade 1", Section: "B"},
			},
		}),
	}
}
