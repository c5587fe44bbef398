package service

import "github.com/noah-isme/campus-placement-api/internal/models"

// OwnershipChecker decides whether a caller may touch a resource.
type OwnershipChecker struct{}

// CanAccess allows admins and any caller whose id is one of ownerIDs.
func (OwnershipChecker) CanAccess(user *models.CurrentUser, ownerIDs ...string) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	for _, id := range ownerIDs {
		if id != "" && id == user.ID {
			return true
		}
	}
	return false
}

// CanManageInternship allows admins and the recruiter who posted or
// submitted the internship.
func (c OwnershipChecker) CanManageInternship(user *models.CurrentUser, internship *models.Internship) bool {
	if internship == nil {
		return false
	}
	return c.CanAccess(user, internship.PostedBy, internship.SubmittedBy)
}
