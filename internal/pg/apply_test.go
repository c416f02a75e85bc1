package pg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestApplyDDL_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test: needs Docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("modelc"),
		postgres.WithUsername("modelc"),
		postgres.WithPassword("modelc"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	var app string
	require.NoError(t, db.QueryRowContext(ctx, `show application_name`).Scan(&app))
	assert.Equal(t, ApplicationName, app)

	m := loadModel(t, libraryFiles)
	ddl, err := GenerateDDL(m, "public")
	require.NoError(t, err)

	require.NoError(t, ApplyDDL(ctx, db, ddl, nil))
	// второй прогон: таблицы "if not exists", FK — duplicate_object
	require.NoError(t, ApplyDDL(ctx, db, ddl, nil))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`select count(*) from information_schema.table_constraints where constraint_type = 'FOREIGN KEY'`).Scan(&n))
	assert.Equal(t, 2, n)

	require.NoError(t, db.QueryRowContext(ctx,
		`select count(*) from information_schema.tables where table_schema in ('public', 'sales') and table_type = 'BASE TABLE'`).Scan(&n))
	assert.Equal(t, 3, n)

	_, err = db.ExecContext(ctx, `insert into "public"."authors"("name") values ('Tolstoy')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `insert into "public"."book"("isbn", "authorid") values ('1', 42)`)
	require.Error(t, err)
}
