package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	"github.com/noah-isme/campus-placement-api/internal/service"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

// ContextInternshipKey holds the internship loaded by InternshipOwnership.
const ContextInternshipKey = "internship"

type internshipFinder interface {
	FindByID(ctx context.Context, id string) (*models.Internship, error)
}

// InternshipOwnership lets admins through and requires recruiters to have
// posted or submitted the internship named by the :id parameter.
func InternshipOwnership(internships internshipFinder) gin.HandlerFunc {
	checker := service.OwnershipChecker{}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if user.IsAdmin() {
			c.Next()
			return
		}
		internship, err := internships.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if repository.IsNotFound(err) {
				response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Internship not found"))
			} else {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship"))
			}
			c.Abort()
			return
		}
		if user.Role != models.RoleRecruiter || !checker.CanManageInternship(user, internship) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "You can only manage your own internships"))
			c.Abort()
			return
		}
		c.Set(ContextInternshipKey, internship)
		c.Next()
	}
}
