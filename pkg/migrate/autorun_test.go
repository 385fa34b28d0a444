package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow/pkg/config"
	"github.com/angelmondragon/orderflow/pkg/db"
	"github.com/angelmondragon/orderflow/pkg/logger"
)

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:autorun?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	client := db.NewFromGorm(conn)

	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), client))

	for _, table := range []string{"orders", "order_items", "vendor_order_mirrors", "customer_order_mirrors", "order_status_events", "outbox_events", "outbox_dlq"} {
		require.True(t, conn.Migrator().HasTable(table), table)
	}
}
