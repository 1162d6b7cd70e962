package contribution

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterRetentionJob(t *testing.T) {
	f := newServiceFixture(time.Now())
	c := cron.New()

	require.NoError(t, RegisterRetentionJob(c, "@daily", f.svc, zap.NewNop()))
	assert.Len(t, c.Entries(), 1)

	assert.Error(t, RegisterRetentionJob(c, "every tuesday", f.svc, zap.NewNop()))
}

func TestRetentionJobRunPurges(t *testing.T) {
	now := time.Now()
	f := newServiceFixture(now)
	f.repo.rows = []*Contribution{{CreatedAt: now.AddDate(0, 0, -40)}}
	c := cron.New()
	require.NoError(t, RegisterRetentionJob(c, "@daily", f.svc, zap.NewNop()))

	c.Entries()[0].Job.Run()
	assert.Empty(t, f.repo.rows)
}
