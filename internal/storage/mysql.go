package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ats-evaluator/internal/config"
	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/storage/models"
	"ats-evaluator/internal/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer(tracing.InstrumentationName + "/storage/mysql")

type gormSpanKey struct{}

// GormTracingPlugin 为审计表的每次读写创建 client span，SkipHooks 的语句不追踪
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	register := []struct {
		name   string
		before error
		after  error
	}{
		{"create",
			cb.Create().Before("gorm:create").Register("otel:before_create", p.before("INSERT")),
			cb.Create().After("gorm:create").Register("otel:after_create", p.after())},
		{"query",
			cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")),
			cb.Query().After("gorm:query").Register("otel:after_query", p.after())},
		{"update",
			cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")),
			cb.Update().After("gorm:update").Register("otel:after_update", p.after())},
		{"delete",
			cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")),
			cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after())},
		{"raw",
			cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")),
			cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after())},
	}
	for _, r := range register {
		if err := errors.Join(r.before, r.after); err != nil {
			return fmt.Errorf("register %s callbacks: %w", r.name, err)
		}
	}
	return nil
}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement.SkipHooks {
			return
		}

		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			))
		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if stmt := db.Statement.SQL.String(); stmt != "" {
			span.SetAttributes(attribute.String("db.statement", tracing.TruncateString(stmt, tracing.DefaultMaxLength)))
		}

		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 记录不存在属于正常业务情况
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db *gorm.DB
}

// NewMySQL 创建MySQL客户端并迁移审计表
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
	}
	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	m, err := NewMySQLWithDB(db, cfg.Database)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("database", cfg.Database).Msg("成功连接到MySQL并完成表结构迁移")
	return m, nil
}

// NewMySQLWithDB 包装已有的 gorm 连接并注册追踪插件
func NewMySQLWithDB(db *gorm.DB, dbName string) (*MySQL, error) {
	if err := db.Use(NewGormTracingPlugin(dbName)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}
	return &MySQL{db: db}, nil
}

func gormLogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 1:
		return gormlogger.Silent
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err := silentDB.AutoMigrate(&models.EvaluationRun{}, &models.OutboxMessage{}); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}
