package persistence

import (
	"testing"

	"brand-publisher/infrastructure/configuration"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDSNs(t *testing.T) {
	cfg := configuration.Db{Name: "brand_publisher", Host: "db", Port: "5432", User: "app", Password: "s3cret", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=app password=s3cret dbname=brand_publisher sslmode=disable", postgresDSN(cfg))

	cfg.Port = "3306"
	assert.Equal(t, "app:s3cret@tcp(db:3306)/brand_publisher?charset=utf8mb4&parseTime=True&loc=UTC", mysqlDSN(cfg))

	cfg.Port = "1433"
	assert.Equal(t, "sqlserver://app:s3cret@db:1433?database=brand_publisher&encrypt=true", mssqlDSN(cfg))
	local := configuration.Db{Host: "localhost", Port: "1433", User: "sa"}
	assert.Equal(t, "sqlserver://sa@localhost:1433?TrustServerCertificate=true&encrypt=true", mssqlDSN(local))

	assert.Equal(t, "mongodb://mongo:27017/logs", mongoURI("mongo", "27017", "", "", "logs"))
	assert.Equal(t, "mongodb://root:pw@mongo:27017/logs?authSource=admin", mongoURI("mongo", "27017", "root", "pw", "logs"))
}

func TestNewMongoDb_RequiresHost(t *testing.T) {
	_, err := NewMongoDb("", "27017", "", "", "logs")
	assert.Error(t, err)
}

// newGormMock opens gorm over sqlmock the same way the connection repository is opened.
func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}
