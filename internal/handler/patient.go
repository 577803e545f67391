package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jetci/wecare-app-sub000/internal/auth"
	"github.com/jetci/wecare-app-sub000/internal/model"
	"github.com/jetci/wecare-app-sub000/internal/repository"
)

// PatientHandler exposes the patient CRUD surface.  Every operation
// goes through the RBAC guard; self-scoped roles only reach rows they
// manage.
type PatientHandler struct {
	Patients repository.PatientRepository
}

func NewPatientHandler(patients repository.PatientRepository) *PatientHandler {
	return &PatientHandler{Patients: patients}
}

type patientReq struct {
	FullName        string `json:"fullName"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Notes           string `json:"notes"`
	ManagedByUserID uint64 `json:"managedByUserId"` // honored for admins only
}

type patientResp struct {
	ID              uint64    `json:"id"`
	ManagedByUserID uint64    `json:"managedByUserId"`
	FullName        string    `json:"fullName"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toPatientResp(p model.Patient) patientResp {
	return patientResp{
		ID:              p.ID,
		ManagedByUserID: p.ManagedByUserID,
		FullName:        p.FullName,
		Phone:           p.Phone,
		Address:         p.Address,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// Create registers a patient.  Community users always become the
// manager of the new row; admins may create on behalf of another
// manager by passing managedByUserId.
func (h *PatientHandler) Create(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	if err := auth.Authorize(sess, model.RoleCommunity, model.RoleAdmin, model.RoleDeveloper); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req patientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fullName required"})
	}

	manager := sess.UserID
	role := model.Role(sess.Role)
	if role.BypassesOwnership() && req.ManagedByUserID != 0 {
		manager = req.ManagedByUserID
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p := model.Patient{
		ManagedByUserID: manager,
		FullName:        req.FullName,
		Phone:           strings.TrimSpace(req.Phone),
		Address:         strings.TrimSpace(req.Address),
		Notes:           req.Notes,
	}
	if _, err := h.Patients.Create(ctx, &p); err != nil {
		return internalError(c, "create patient", err)
	}
	return c.JSON(http.StatusCreated, toPatientResp(p))
}

// List returns patients visible to the session: own rows for community
// users, all rows for oversight and admin roles.
func (h *PatientHandler) List(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	if err := auth.Authorize(sess, model.RoleCommunity, model.RoleHealthOfficer,
		model.RoleExecutive, model.RoleAdmin, model.RoleDeveloper); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	role := model.Role(sess.Role)
	var (
		patients []model.Patient
		err      error
	)
	if role.SelfScoped() {
		patients, err = h.Patients.ListByManager(ctx, sess.UserID)
	} else {
		patients, err = h.Patients.ListAll(ctx)
	}
	if err != nil {
		return internalError(c, "list patients", err)
	}

	out := make([]patientResp, 0, len(patients))
	for _, p := range patients {
		out = append(out, toPatientResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one patient after the ownership check.
func (h *PatientHandler) Get(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Patients.GetByID(ctx, id)
	if err != nil {
		return respondAuthzErr(c, "load patient", err)
	}
	if err := auth.AuthorizeOwner(sess, p.ManagedByUserID,
		model.RoleCommunity, model.RoleHealthOfficer, model.RoleExecutive,
		model.RoleAdmin, model.RoleDeveloper); err != nil {
		return respondAuthzErr(c, "authorize patient", err)
	}
	return c.JSON(http.StatusOK, toPatientResp(p))
}

// Update rewrites a patient's mutable fields after the ownership
// check.  Oversight roles are read-only here.
func (h *PatientHandler) Update(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req patientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fullName required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Patients.GetByID(ctx, id)
	if err != nil {
		return respondAuthzErr(c, "load patient", err)
	}
	if err := auth.AuthorizeOwner(sess, p.ManagedByUserID,
		model.RoleCommunity, model.RoleAdmin, model.RoleDeveloper); err != nil {
		return respondAuthzErr(c, "authorize patient", err)
	}

	p.FullName = req.FullName
	p.Phone = strings.TrimSpace(req.Phone)
	p.Address = strings.TrimSpace(req.Address)
	p.Notes = req.Notes
	if err := h.Patients.Update(ctx, &p); err != nil {
		return respondAuthzErr(c, "update patient", err)
	}
	return c.JSON(http.StatusOK, toPatientResp(p))
}

// Delete removes a patient row after the ownership check.
func (h *PatientHandler) Delete(c echo.Context) error {
	sess, ok := requireSession(c)
	if !ok {
		return nil
	}
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Patients.GetByID(ctx, id)
	if err != nil {
		return respondAuthzErr(c, "load patient", err)
	}
	if err := auth.AuthorizeOwner(sess, p.ManagedByUserID,
		model.RoleCommunity, model.RoleAdmin, model.RoleDeveloper); err != nil {
		return respondAuthzErr(c, "authorize patient", err)
	}
	if err := h.Patients.Delete(ctx, id); err != nil {
		return respondAuthzErr(c, "delete patient", err)
	}
	return c.NoContent(http.StatusNoContent)
}
