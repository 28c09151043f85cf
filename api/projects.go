package api

import (
	"encoding/json"
	"errors"

	"github.com/codecollab-io/codecollab/db"
	"github.com/codecollab-io/codecollab/filetree"
	"github.com/codecollab-io/codecollab/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// projectView is the public shape of a project record
type projectView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	AdminID   string         `json:"adminId"`
	MemberIDs []string       `json:"memberIds"`
	FileTree  *filetree.Tree `json:"fileTree,omitempty"`
	CreatedAt int64          `json:"createdAt"`
}

type createProjectRequest struct {
	Name string `json:"name"`
}

func (r createProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 128)),
	)
}

// CreateProject handles POST /projects/create
func (h *Handlers) CreateProject(c *gin.Context) {
	identity := CurrentUser(c)

	var body createProjectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}
	if err := body.Validate(); err != nil {
		RespondValidationError(c, err.Error(), validationDetails(err))
		return
	}

	project := &db.Project{
		ID:        uuid.New().String(),
		Name:      body.Name,
		AdminID:   identity.UserID,
		CreatedAt: db.NowMs(),
	}
	if err := db.CreateProject(project); err != nil {
		log.Error().Err(err).Str("name", body.Name).Msg("project insert failed")
		RespondConflict(c, "Project name already in use")
		return
	}

	RespondCreated(c, toProjectView(project, nil))
}

// ListProjects handles GET /projects/all
func (h *Handlers) ListProjects(c *gin.Context) {
	identity := CurrentUser(c)

	projects, err := db.ListProjectsForUser(identity.UserID)
	if err != nil {
		log.Error().Err(err).Msg("project list failed")
		RespondInternalError(c, "Failed to list projects")
		return
	}

	views := make([]projectView, 0, len(projects))
	for i := range projects {
		views = append(views, toProjectView(&projects[i], nil))
	}
	RespondList(c, views)
}

// GetProject handles GET /projects/get-project/:projectId
func (h *Handlers) GetProject(c *gin.Context) {
	identity := CurrentUser(c)
	projectID := c.Param("projectId")

	project, ok := h.memberProject(c, projectID, identity.UserID)
	if !ok {
		return
	}

	RespondData(c, toProjectView(project, h.Sync.Tree(projectID)))
}

// AddUsers handles PUT /projects/add-user
func (h *Handlers) AddUsers(c *gin.Context) {
	identity := CurrentUser(c)

	var body struct {
		ProjectID string   `json:"projectId"`
		Users     []string `json:"users"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ProjectID == "" || len(body.Users) == 0 {
		RespondBadRequest(c, "projectId and users are required")
		return
	}

	project, err := db.GetProject(body.ProjectID)
	if err != nil {
		RespondNotFound(c, "Project not found")
		return
	}
	if project.AdminID != identity.UserID {
		RespondForbidden(c, "Only the admin can add collaborators")
		return
	}

	for _, userID := range body.Users {
		if _, err := db.GetUserByID(userID); err != nil {
			RespondBadRequest(c, "Unknown user: "+userID)
			return
		}
	}

	if err := db.AddMembers(body.ProjectID, body.Users); err != nil {
		log.Error().Err(err).Str("projectId", body.ProjectID).Msg("member insert failed")
		RespondInternalError(c, "Failed to add collaborators")
		return
	}

	project, err = db.GetProject(body.ProjectID)
	if err != nil {
		RespondInternalError(c, "Failed to reload project")
		return
	}
	RespondData(c, toProjectView(project, nil))
}

// UpdateFileTree handles PUT /projects/update-file-tree, the editor's
// whole-tree autosave. The write is debounced; bursts of edits coalesce
// into one durable write after the quiet interval.
func (h *Handlers) UpdateFileTree(c *gin.Context) {
	identity := CurrentUser(c)

	var body struct {
		ProjectID string          `json:"projectId"`
		FileTree  json.RawMessage `json:"fileTree"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ProjectID == "" {
		RespondBadRequest(c, "projectId and fileTree are required")
		return
	}

	if _, ok := h.memberProject(c, body.ProjectID, identity.UserID); !ok {
		return
	}

	tree, err := filetree.Parse(body.FileTree)
	if err != nil {
		RespondBadRequest(c, "Malformed file tree")
		return
	}

	h.Sync.SetTree(body.ProjectID, tree)
	RespondData(c, gin.H{"scheduled": true})
}

// UpdateFile handles PUT /projects/update-file, a single-leaf content edit
func (h *Handlers) UpdateFile(c *gin.Context) {
	identity := CurrentUser(c)

	var body struct {
		ProjectID string `json:"projectId"`
		Path      string `json:"path"`
		Contents  string `json:"contents"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ProjectID == "" || body.Path == "" {
		RespondBadRequest(c, "projectId and path are required")
		return
	}

	if _, ok := h.memberProject(c, body.ProjectID, identity.UserID); !ok {
		return
	}

	if !h.Sync.UpdateFile(body.ProjectID, body.Path, body.Contents) {
		RespondNotFound(c, "No file at path: "+body.Path)
		return
	}
	RespondData(c, gin.H{"scheduled": true})
}

// DeleteProject handles DELETE /projects/:projectId
func (h *Handlers) DeleteProject(c *gin.Context) {
	identity := CurrentUser(c)
	projectID := c.Param("projectId")

	project, err := db.GetProject(projectID)
	if err != nil {
		RespondNotFound(c, "Project not found")
		return
	}
	if project.AdminID != identity.UserID {
		RespondForbidden(c, "Only the admin can delete the project")
		return
	}

	if err := db.DeleteProject(projectID); err != nil {
		log.Error().Err(err).Str("projectId", projectID).Msg("project delete failed")
		RespondInternalError(c, "Failed to delete project")
		return
	}

	h.Sync.Forget(projectID)
	RespondNoContent(c)
}

// memberProject loads a project and enforces membership, writing the error
// response itself when the check fails.
func (h *Handlers) memberProject(c *gin.Context, projectID, userID string) (*db.Project, bool) {
	project, err := db.GetProject(projectID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			RespondNotFound(c, "Project not found")
		} else {
			log.Error().Err(err).Str("projectId", projectID).Msg("project load failed")
			RespondInternalError(c, "Failed to load project")
		}
		return nil, false
	}
	if !project.IsMember(userID) {
		RespondForbidden(c, "Not a member of this project")
		return nil, false
	}
	return project, true
}

func toProjectView(p *db.Project, tree *filetree.Tree) projectView {
	return projectView{
		ID:        p.ID,
		Name:      p.Name,
		AdminID:   p.AdminID,
		MemberIDs: p.MemberIDs,
		FileTree:  tree,
		CreatedAt: p.CreatedAt,
	}
}
