package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/taskmanager-dev/taskmanager/db"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"gorm.io/gorm"
)

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()

	conn, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.Open() failed: %v", err)
	}

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("db.Migrate() failed: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return New(conn), conn
}

func createAccount(t *testing.T, svc *Services, username, name string) models.Credentials {
	t.Helper()

	credentials := models.Credentials{
		Username: username,
		User:     models.User{Name: name, Email: username + "@example.com"},
	}

	if err := svc.Credentials.SetPassword(&credentials, "secret1"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}

	if err := svc.Credentials.Save(context.Background(), &credentials); err != nil {
		t.Fatalf("Save(%s) failed: %v", username, err)
	}

	return credentials
}

func createProject(t *testing.T, svc *Services, owner models.User, name string) models.Project {
	t.Helper()

	project := models.Project{Name: name, Description: "about " + name, Owner: owner}

	if err := svc.Projects.Save(context.Background(), &project); err != nil {
		t.Fatalf("Projects.Save(%s) failed: %v", name, err)
	}

	return project
}

func TestCredentialsSaveAndAuthenticate(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "Alice ", "Alice")

	if alice.Username != "alice" {
		t.Errorf("expected normalized username alice, got %q", alice.Username)
	}

	if alice.Role != models.RoleDefault {
		t.Errorf("expected default role, got %s", alice.Role)
	}

	if alice.UserID == 0 || alice.User.ID != alice.UserID {
		t.Fatalf("expected user to be saved with credentials, got %+v", alice)
	}

	got, err := svc.Credentials.Authenticate(ctx, "ALICE", "secret1")
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}

	if got.User.Name != "Alice" {
		t.Errorf("expected preloaded user Alice, got %q", got.User.Name)
	}

	if _, err := svc.Credentials.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	if _, err := svc.Credentials.Authenticate(ctx, "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestCredentialsDuplicateUsername(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	createAccount(t, svc, "bob", "Bob")

	taken, err := svc.Credentials.UsernameTaken(ctx, "BOB", 0)
	if err != nil {
		t.Fatalf("UsernameTaken() failed: %v", err)
	}
	if !taken {
		t.Error("expected bob to be taken")
	}

	duplicate := models.Credentials{
		Username:     "bob",
		PasswordHash: "x",
		User:         models.User{Name: "Other Bob", Email: "other@example.com"},
	}

	if err := svc.Credentials.Save(ctx, &duplicate); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestCredentialsLookupMissing(t *testing.T) {
	svc, _ := newTestServices(t)

	if _, err := svc.Credentials.GetByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	created, err := svc.Credentials.EnsureAdmin(ctx, "root", "changeme", "", "root@example.com")
	if err != nil {
		t.Fatalf("EnsureAdmin() failed: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}

	admin, err := svc.Credentials.GetByUsername(ctx, "root")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("expected ADMIN role, got %s", admin.Role)
	}

	created, err = svc.Credentials.EnsureAdmin(ctx, "root", "other", "", "")
	if err != nil {
		t.Fatalf("second EnsureAdmin() failed: %v", err)
	}
	if created {
		t.Error("expected existing admin to be left alone")
	}
}

func TestProjectUpdateKeepsRelations(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	bob := createAccount(t, svc, "bob", "Bob").User
	project := createProject(t, svc, alice, "Launch")

	if err := svc.Projects.Share(ctx, &project, bob); err != nil {
		t.Fatalf("Share() failed: %v", err)
	}

	task := models.Task{Name: "Write spec"}
	if err := svc.Projects.AddTask(ctx, &project, &task); err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	edited := models.Project{
		BaseModel:   models.BaseModel{ID: project.ID},
		Name:        "Launch v2",
		Description: "",
	}

	if err := svc.Projects.Save(ctx, &edited); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := svc.Projects.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if got.Name != "Launch v2" || got.Description != "" {
		t.Errorf("expected edited fields, got %q/%q", got.Name, got.Description)
	}

	if got.OwnerID != alice.ID {
		t.Errorf("expected owner %d to survive, got %d", alice.ID, got.OwnerID)
	}

	if len(got.Members) != 1 || got.Members[0].ID != bob.ID {
		t.Errorf("expected bob to stay a member, got %+v", got.Members)
	}

	if len(got.Tasks) != 1 || got.Tasks[0].ID != task.ID {
		t.Errorf("expected task to survive, got %+v", got.Tasks)
	}
}

func TestProjectSaveMissing(t *testing.T) {
	svc, _ := newTestServices(t)

	project := models.Project{BaseModel: models.BaseModel{ID: 999}, Name: "Nope"}

	if err := svc.Projects.Save(context.Background(), &project); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestShareIsIdempotent(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	bob := createAccount(t, svc, "bob", "Bob").User
	project := createProject(t, svc, alice, "Launch")

	for i := 0; i < 2; i++ {
		if err := svc.Projects.Share(ctx, &project, bob); err != nil {
			t.Fatalf("Share() #%d failed: %v", i+1, err)
		}
	}

	// Sharing against a freshly loaded project sees the stored membership.
	fresh, err := svc.Projects.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if err := svc.Projects.Share(ctx, &fresh, bob); err != nil {
		t.Fatalf("Share() on fresh project failed: %v", err)
	}

	if err := svc.Projects.Share(ctx, &fresh, alice); err != nil {
		t.Fatalf("Share() with owner failed: %v", err)
	}

	members, err := svc.Users.Members(ctx, project)
	if err != nil {
		t.Fatalf("Members() failed: %v", err)
	}

	if len(members) != 1 || members[0].ID != bob.ID {
		t.Errorf("expected exactly bob as member, got %+v", members)
	}

	shared, err := svc.Projects.SharedWith(ctx, bob)
	if err != nil {
		t.Fatalf("SharedWith() failed: %v", err)
	}

	if len(shared) != 1 || shared[0].Owner.ID != alice.ID {
		t.Errorf("expected one project owned by alice, got %+v", shared)
	}

	owned, err := svc.Projects.OwnedBy(ctx, bob)
	if err != nil {
		t.Fatalf("OwnedBy() failed: %v", err)
	}

	if len(owned) != 0 {
		t.Errorf("expected bob to own nothing, got %d projects", len(owned))
	}
}

func TestAddTaskStartsIncomplete(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	project := createProject(t, svc, alice, "Launch")

	task := models.Task{Name: "Write spec", Completed: true}
	if err := svc.Projects.AddTask(ctx, &project, &task); err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	got, err := svc.Tasks.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Tasks.Get() failed: %v", err)
	}

	if got.Completed {
		t.Error("expected new task to start incomplete")
	}

	if got.ProjectID != project.ID || got.Project.Owner.ID != alice.ID {
		t.Errorf("expected task in project %d owned by alice, got %+v", project.ID, got.Project)
	}

	got.Completed = true
	got.Name = "Write the spec"

	if err := svc.Tasks.Save(ctx, &got); err != nil {
		t.Fatalf("Tasks.Save() failed: %v", err)
	}

	updated, _ := svc.Tasks.Get(ctx, task.ID)
	if !updated.Completed || updated.Name != "Write the spec" {
		t.Errorf("expected update to stick, got %+v", updated)
	}

	if err := svc.Tasks.Save(ctx, &models.Task{Name: "orphan"}); err == nil {
		t.Error("expected Save() of a new task to fail")
	}
}

func TestAssignRequiresMembership(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	bob := createAccount(t, svc, "bob", "Bob").User
	carol := createAccount(t, svc, "carol", "Carol").User
	project := createProject(t, svc, alice, "Launch")

	if err := svc.Projects.Share(ctx, &project, bob); err != nil {
		t.Fatalf("Share() failed: %v", err)
	}

	task := models.Task{Name: "Write spec"}
	if err := svc.Projects.AddTask(ctx, &project, &task); err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	loaded, _ := svc.Tasks.Get(ctx, task.ID)

	if err := svc.Tasks.Assign(ctx, &loaded, carol); !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember for carol, got %v", err)
	}

	if err := svc.Tasks.Assign(ctx, &loaded, bob); err != nil {
		t.Fatalf("Assign(bob) failed: %v", err)
	}

	todo, err := svc.Tasks.AssignedTo(ctx, bob)
	if err != nil {
		t.Fatalf("AssignedTo() failed: %v", err)
	}

	if len(todo) != 1 || todo[0].ID != task.ID || todo[0].Project.Name != "Launch" {
		t.Errorf("expected bob's list to hold the task with its project, got %+v", todo)
	}

	if err := svc.Tasks.Assign(ctx, &loaded, alice); err != nil {
		t.Fatalf("Assign(alice) failed: %v", err)
	}

	got, _ := svc.Tasks.Get(ctx, task.ID)
	if got.AssignedUser == nil || got.AssignedUser.ID != alice.ID {
		t.Errorf("expected alice as assignee, got %+v", got.AssignedUser)
	}
}

func TestTaskTags(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	launch := createProject(t, svc, alice, "Launch")
	other := createProject(t, svc, alice, "Other")

	urgent := models.Tag{Name: "urgent", Color: "#ff0000"}
	if err := svc.Projects.AddTag(ctx, &launch, &urgent); err != nil {
		t.Fatalf("AddTag() failed: %v", err)
	}

	foreign := models.Tag{Name: "later"}
	if err := svc.Projects.AddTag(ctx, &other, &foreign); err != nil {
		t.Fatalf("AddTag() failed: %v", err)
	}

	task := models.Task{Name: "Write spec"}
	if err := svc.Projects.AddTask(ctx, &launch, &task); err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	if err := svc.Tasks.AddTag(ctx, &task, foreign); !errors.Is(err, ErrForeignTag) {
		t.Errorf("expected ErrForeignTag, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Tasks.AddTag(ctx, &task, urgent); err != nil {
			t.Fatalf("AddTag() #%d failed: %v", i+1, err)
		}
	}

	got, _ := svc.Tasks.Get(ctx, task.ID)
	if len(got.Tags) != 1 || got.Tags[0].ID != urgent.ID {
		t.Errorf("expected exactly the urgent tag, got %+v", got.Tags)
	}

	if err := svc.Tags.Delete(ctx, &urgent); err != nil {
		t.Fatalf("Tags.Delete() failed: %v", err)
	}

	got, _ = svc.Tasks.Get(ctx, task.ID)
	if len(got.Tags) != 0 {
		t.Errorf("expected deleted tag to be detached, got %+v", got.Tags)
	}
}

func TestCommentsKeepOrder(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	project := createProject(t, svc, alice, "Launch")

	task := models.Task{Name: "Write spec"}
	if err := svc.Projects.AddTask(ctx, &project, &task); err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	for _, comment := range []string{"first", "second", "third"} {
		if err := svc.Tasks.AddComment(ctx, &task, comment); err != nil {
			t.Fatalf("AddComment(%s) failed: %v", comment, err)
		}
	}

	got, _ := svc.Tasks.Get(ctx, task.ID)
	want := []string{"first", "second", "third"}

	if len(got.Comments) != len(want) {
		t.Fatalf("expected %d comments, got %v", len(want), got.Comments)
	}

	for i := range want {
		if got.Comments[i] != want[i] {
			t.Errorf("comment %d: expected %q, got %q", i, want[i], got.Comments[i])
		}
	}
}

func TestProjectDeleteCascades(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	bob := createAccount(t, svc, "bob", "Bob").User
	project := createProject(t, svc, alice, "Launch")
	keep := createProject(t, svc, alice, "Keep")

	if err := svc.Projects.Share(ctx, &project, bob); err != nil {
		t.Fatalf("Share() failed: %v", err)
	}

	tag := models.Tag{Name: "urgent"}
	if err := svc.Projects.AddTag(ctx, &project, &tag); err != nil {
		t.Fatalf("AddTag() failed: %v", err)
	}

	task := models.Task{Name: "Write spec"}
	if err := svc.Projects.AddTask(ctx, &project, &task); err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	if err := svc.Tasks.AddTag(ctx, &task, tag); err != nil {
		t.Fatalf("Tasks.AddTag() failed: %v", err)
	}

	kept := models.Task{Name: "Stay"}
	if err := svc.Projects.AddTask(ctx, &keep, &kept); err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	if err := svc.Projects.Delete(ctx, &project); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, err := svc.Projects.Get(ctx, project.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected project to be gone, got %v", err)
	}

	if _, err := svc.Tasks.Get(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected task to be gone, got %v", err)
	}

	var orphans int64
	conn.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&orphans)
	if orphans != 0 {
		t.Errorf("expected no tasks left for deleted project, got %d", orphans)
	}

	var links int64
	conn.Table("task_tags").Where("task_id = ?", task.ID).Count(&links)
	if links != 0 {
		t.Errorf("expected task tags to be removed, got %d", links)
	}

	shared, _ := svc.Projects.SharedWith(ctx, bob)
	if len(shared) != 0 {
		t.Errorf("expected membership to be removed, got %+v", shared)
	}

	if _, err := svc.Tasks.Get(ctx, kept.ID); err != nil {
		t.Errorf("expected task of another project to survive, got %v", err)
	}
}

func TestDeleteUserRemovesOwnedData(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	bob := createAccount(t, svc, "bob", "Bob").User

	aliceProject := createProject(t, svc, alice, "Launch")
	bobProject := createProject(t, svc, bob, "Garden")

	if err := svc.Projects.Share(ctx, &aliceProject, bob); err != nil {
		t.Fatalf("Share() failed: %v", err)
	}

	task := models.Task{Name: "Write spec"}
	if err := svc.Projects.AddTask(ctx, &aliceProject, &task); err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}

	loaded, _ := svc.Tasks.Get(ctx, task.ID)
	if err := svc.Tasks.Assign(ctx, &loaded, bob); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}

	if err := svc.Credentials.Delete(ctx, "bob"); err != nil {
		t.Fatalf("Credentials.Delete() failed: %v", err)
	}

	if _, err := svc.Users.Get(ctx, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected bob to be gone, got %v", err)
	}

	if _, err := svc.Projects.Get(ctx, bobProject.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected bob's project to be gone, got %v", err)
	}

	got, err := svc.Tasks.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Tasks.Get() failed: %v", err)
	}

	if got.AssignedUserID != nil {
		t.Errorf("expected task to be unassigned, got %v", *got.AssignedUserID)
	}

	if len(got.Project.Members) != 0 {
		t.Errorf("expected bob's membership to be removed, got %+v", got.Project.Members)
	}

	all, _ := svc.Credentials.List(ctx)
	if len(all) != 1 || all[0].Username != "alice" {
		t.Errorf("expected only alice left, got %+v", all)
	}
}

func TestUserSaveUpdatesProfile(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	alice := createAccount(t, svc, "alice", "Alice").User
	alice.Name = "Alice Smith"
	alice.Email = "smith@example.com"

	if err := svc.Users.Save(ctx, &alice); err != nil {
		t.Fatalf("Users.Save() failed: %v", err)
	}

	got, err := svc.Users.Get(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Users.Get() failed: %v", err)
	}

	if got.Name != "Alice Smith" || got.Email != "smith@example.com" {
		t.Errorf("expected updated profile, got %+v", got)
	}
}
