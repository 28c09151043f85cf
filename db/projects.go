package db

import (
	"database/sql"
)

// CreateProject inserts a project and registers the admin as its first
// member, keeping the adminId-is-a-member invariant.
func CreateProject(p *Project) error {
	db := GetDB()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO projects (id, name, admin_id, file_tree, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.AdminID, "{}", p.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO project_members (project_id, user_id) VALUES (?, ?)
	`, p.ID, p.AdminID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	p.MemberIDs = []string{p.AdminID}
	return nil
}

// GetProject retrieves a project with its member id list,
// returns ErrNotFound if missing
func GetProject(id string) (*Project, error) {
	var p Project
	err := GetDB().QueryRow(`
		SELECT id, name, admin_id, file_tree, created_at
		FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.AdminID, &p.FileTree, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	members, err := projectMembers(p.ID)
	if err != nil {
		return nil, err
	}
	p.MemberIDs = members
	return &p, nil
}

// ListProjectsForUser returns every project the user is a member of
func ListProjectsForUser(userID string) ([]Project, error) {
	rows, err := GetDB().Query(`
		SELECT p.id, p.name, p.admin_id, p.file_tree, p.created_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.AdminID, &p.FileTree, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		members, err := projectMembers(projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].MemberIDs = members
	}
	return projects, nil
}

// AddMembers adds users to a project, ignoring ones already present
func AddMembers(projectID string, userIDs []string) error {
	db := GetDB()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, userID := range userIDs {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO project_members (project_id, user_id)
			VALUES (?, ?)
		`, projectID, userID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateFileTree overwrites the stored file tree for a project.
// The write is an idempotent whole-column overwrite.
func UpdateFileTree(projectID string, treeJSON string) error {
	result, err := GetDB().Exec(`
		UPDATE projects SET file_tree = ? WHERE id = ?
	`, treeJSON, projectID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project and its membership rows
func DeleteProject(id string) error {
	result, err := GetDB().Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func projectMembers(projectID string) ([]string, error) {
	rows, err := GetDB().Query(`
		SELECT user_id FROM project_members WHERE project_id = ?
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
