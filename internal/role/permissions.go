package role

// Built-in role names.
const (
	SuperAdmin   = "SUPER_ADMIN"
	Admin        = "ADMIN"
	Doctor       = "DOCTOR"
	Nurse        = "NURSE"
	Receptionist = "RECEPTIONIST"
	Patient      = "PATIENT"
)

// Permission keys checked by the HTTP layer and granted by the built-in roles.
const (
	PermUserRead         = "user.read"
	PermUserRoleAssign   = "user.role.assign"
	PermUserBranchAssign = "user.branch.assign"

	PermRoleRead  = "role.read"
	PermRoleWrite = "role.write"

	PermPatientRead  = "patient.read"
	PermPatientWrite = "patient.write"

	PermAppointmentRead  = "appointment.read"
	PermAppointmentWrite = "appointment.write"

	PermMedicalRecordRead  = "medical_record.read"
	PermMedicalRecordWrite = "medical_record.write"

	PermBranchRead = "branch.read"
)

// AllPermissions lists every key known to the application.
func AllPermissions() []string {
	return []string{
		PermUserRead,
		PermUserRoleAssign,
		PermUserBranchAssign,
		PermRoleRead,
		PermRoleWrite,
		PermPatientRead,
		PermPatientWrite,
		PermAppointmentRead,
		PermAppointmentWrite,
		PermMedicalRecordRead,
		PermMedicalRecordWrite,
		PermBranchRead,
	}
}

// DefaultRoles is the catalog written by the seed command.
func DefaultRoles() []Role {
	return []Role{
		{
			Name:        SuperAdmin,
			Scope:       ScopeGlobal,
			Permissions: NormalizePermissions(AllPermissions()),
		},
		{
			Name:  Admin,
			Scope: ScopeGlobal,
			Permissions: NormalizePermissions([]string{
				PermUserRead, PermUserRoleAssign, PermUserBranchAssign,
				PermRoleRead, PermBranchRead,
			}),
		},
		{
			Name:  Doctor,
			Scope: ScopeBranch,
			Permissions: NormalizePermissions([]string{
				PermPatientRead, PermPatientWrite,
				PermAppointmentRead, PermAppointmentWrite,
				PermMedicalRecordRead, PermMedicalRecordWrite,
			}),
		},
		{
			Name:  Nurse,
			Scope: ScopeBranch,
			Permissions: NormalizePermissions([]string{
				PermPatientRead, PermAppointmentRead, PermMedicalRecordRead,
			}),
		},
		{
			Name:  Receptionist,
			Scope: ScopeBranch,
			Permissions: NormalizePermissions([]string{
				PermPatientRead, PermPatientWrite,
				PermAppointmentRead, PermAppointmentWrite,
			}),
		},
		{
			Name:        Patient,
			Scope:       ScopeBranch,
			Permissions: NormalizePermissions([]string{PermAppointmentRead}),
		},
	}
}
