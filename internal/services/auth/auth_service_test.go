package auth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/funilzap/crm-funnel-backend/internal/config"
	"github.com/funilzap/crm-funnel-backend/internal/models"
)

func setupAuthDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func setupAuthTest(t *testing.T) *AuthService {
	return NewAuthService(setupAuthDB(t), &config.Config{AppEnv: "development"})
}

func adminConfig() *config.Config {
	return &config.Config{
		AdminUsername: "admin",
		AdminPassword: "s3nha-forte",
	}
}

func TestCreateAdminUserSkipsWithoutPassword(t *testing.T) {
	svc := setupAuthTest(t)

	require.NoError(t, svc.CreateAdminUser(&config.Config{AdminUsername: "admin"}))

	_, err := svc.Login(&models.LoginRequest{Username: "admin", Password: ""})
	assert.Error(t, err)
}

func TestCreateAdminUserIsIdempotent(t *testing.T) {
	svc := setupAuthTest(t)
	cfg := adminConfig()

	require.NoError(t, svc.CreateAdminUser(cfg))
	require.NoError(t, svc.CreateAdminUser(cfg))
}

func TestLoginAndValidateToken(t *testing.T) {
	svc := setupAuthTest(t)
	require.NoError(t, svc.CreateAdminUser(adminConfig()))

	resp, err := svc.Login(&models.LoginRequest{Username: "admin", Password: "s3nha-forte"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	info, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", info.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := setupAuthTest(t)
	require.NoError(t, svc.CreateAdminUser(adminConfig()))

	_, err := svc.Login(&models.LoginRequest{Username: "admin", Password: "errada"})
	assert.Error(t, err)
}

func TestMissingSecretIsEphemeralPerProcess(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	db := setupAuthDB(t)
	cfg := &config.Config{AppEnv: "development"}
	first := NewAuthService(db, cfg)
	second := NewAuthService(db, cfg)

	require.NoError(t, first.CreateAdminUser(adminConfig()))
	resp, err := first.Login(&models.LoginRequest{Username: "admin", Password: "s3nha-forte"})
	require.NoError(t, err)

	// Without JWT_SECRET each process generates its own signing key, so
	// tokens never validate across instances
	_, err = first.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	_, err = second.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := setupAuthTest(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
