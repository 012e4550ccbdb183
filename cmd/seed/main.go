package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"go-user-admin/internal/core/config"
	"go-user-admin/internal/core/database"
	"go-user-admin/internal/core/logger"
	"go-user-admin/internal/domain"
	"go-user-admin/internal/repo"
	"go-user-admin/internal/service"
	"go-user-admin/pkg/utils"
)

// 一次性初始化脚本：建表、灌角色/权限字典、建首个管理员。
// 可重复执行，已存在的数据原样保留。

var (
	username = flag.String("username", "admin", "initial administrator username")
	password = flag.String("password", "", "initial administrator password (required, min 8 chars)")
	name     = flag.String("name", "Administrator", "initial administrator display name")
	roles    = flag.String("roles", "admin", "comma-separated catalog role names to grant")
)

func main() {
	flag.Parse()
	if len(*password) < 8 {
		log.Fatalf("seed: -password is required and must be at least 8 chars")
	}

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatalf("seed: connect database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("→ Migrating schema...")
	if err := db.AutoMigrate(&domain.Role{}, &domain.Permission{}, &domain.User{}); err != nil {
		log.Fatalf("seed: automigrate: %v", err)
	}

	fmt.Println("→ Seeding roles and permissions...")
	roleIDs, permIDs, err := seedCatalog(ctx, db)
	if err != nil {
		log.Fatalf("seed: catalog: %v", err)
	}

	grant := make([]string, 0, 3)
	for _, rn := range strings.Split(*roles, ",") {
		rn = strings.TrimSpace(rn)
		if rn == "" {
			continue
		}
		id, ok := roleIDs[rn]
		if !ok {
			log.Fatalf("seed: unknown role %q (catalog: admin, operator, viewer)", rn)
		}
		grant = append(grant, id)
	}

	fmt.Println("→ Creating administrator", *username, "...")
	if err := seedAdmin(ctx, db, grant, permIDs); err != nil {
		log.Fatalf("seed: administrator: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// seedCatalog 按 name 幂等写入字典表，返回 角色名→ID 和全部权限 ID。
func seedCatalog(ctx context.Context, db *gorm.DB) (map[string]string, []string, error) {
	catalog := []struct {
		name        string
		description string
	}{
		{"admin", "Full access to user administration"},
		{"operator", "Manage user accounts"},
		{"viewer", "Read-only access"},
	}

	roleIDs := make(map[string]string, len(catalog))
	for _, r := range catalog {
		var role domain.Role
		err := db.WithContext(ctx).
			Where(domain.Role{Name: r.name}).
			Attrs(domain.Role{ID: utils.NewID(), Description: r.description}).
			FirstOrCreate(&role).Error
		if err != nil {
			return nil, nil, fmt.Errorf("role %q: %w", r.name, err)
		}
		roleIDs[r.name] = role.ID
	}

	perms := []struct {
		name        string
		description string
	}{
		{"users.read", "List and view users"},
		{"users.create", "Create users"},
		{"users.update", "Update user profiles"},
		{"users.password", "Change user passwords"},
		{"users.block", "Block users"},
	}

	permIDs := make([]string, 0, len(perms))
	for _, p := range perms {
		var perm domain.Permission
		err := db.WithContext(ctx).
			Where(domain.Permission{Name: p.name}).
			Attrs(domain.Permission{ID: utils.NewID(), Description: p.description}).
			FirstOrCreate(&perm).Error
		if err != nil {
			return nil, nil, fmt.Errorf("permission %q: %w", p.name, err)
		}
		permIDs = append(permIDs, perm.ID)
	}

	return roleIDs, permIDs, nil
}

// seedAdmin 走正式的创建链路（bcrypt、重名检查），已存在则跳过。
func seedAdmin(ctx context.Context, db *gorm.DB, roleIDs, permIDs []string) error {
	zl, cleanup := logger.New("warn", false)
	defer cleanup()

	svc := service.NewUserService(repo.NewUserRepo(db), utils.Bcrypt{}, zl)
	_, err := svc.Create(ctx, service.CreateUserInput{
		Username:      *username,
		Password:      *password,
		Name:          *name,
		RoleIDs:       roleIDs,
		PermissionIDs: permIDs,
	})
	var ue *service.UserExistsError
	if errors.As(err, &ue) {
		fmt.Println("  administrator", ue.Username, "already exists, skipping")
		return nil
	}
	return err
}
