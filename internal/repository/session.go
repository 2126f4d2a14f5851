package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Session 单个请求独占的数据库会话（连接池中的一条连接，或连接池本身）
type Session interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

var (
	_ Session = (*sqlx.DB)(nil)
	_ Session = (*sqlx.Conn)(nil)
)

// querier 会话与事务共有的查询方法
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
}

// Pool 连接池，按请求借出会话
type Pool struct {
	db *sqlx.DB
}

// NewPool 创建连接池包装
func NewPool(db *sqlx.DB) *Pool {
	return &Pool{db: db}
}

// Acquire 借出一条连接；调用方必须调用返回的 release
func (p *Pool) Acquire(ctx context.Context) (Session, func() error, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Close, nil
}

// DB 底层连接池
func (p *Pool) DB() *sqlx.DB { return p.db }

// Stats 连接池统计
func (p *Pool) Stats() sql.DBStats { return p.db.Stats() }

// Ping 健康检查
func (p *Pool) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// withTx 在会话上开启事务执行 fn；fn 返回错误或 ctx 取消时回滚
func withTx(ctx context.Context, sess Session, fn func(tx *sqlx.Tx) error) error {
	tx, err := sess.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
