package section

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/mediasection/internal/rest"
)

func TestHoverEntryIsImmediate(t *testing.T) {
	f := newFixture(t)
	f.ctrl.HoverEnter(Media{ID: 1, Name: "A"})

	assert.Equal(t, []string{"focus:A"}, f.overview.Calls())
	assert.Empty(t, f.scheduler.fns)
	assert.Equal(t, SignalEnter, f.ctrl.Hover().Latest())
}

func TestHoverExitSchedulesSettleCheck(t *testing.T) {
	f := newFixture(t)
	f.ctrl.HoverEnter(Media{Name: "A"})
	f.ctrl.HoverExit()

	require.Len(t, f.scheduler.fns, 1)
	assert.Equal(t, DefaultSettleDelay, f.scheduler.delays[0])
	f.scheduler.fns[0]()
	assert.Equal(t, []string{"focus:A", "idle"}, f.overview.Calls())
}

func TestHoverEnterBeforeSettleSuppressesIdle(t *testing.T) {
	f := newFixture(t)
	f.ctrl.HoverEnter(Media{Name: "A"})
	f.ctrl.HoverExit()
	f.ctrl.HoverEnter(Media{Name: "B"})
	f.scheduler.fns[0]()

	assert.Equal(t, []string{"focus:A", "focus:B"}, f.overview.Calls())
}

func TestHoverInterleavedTimersEndIdle(t *testing.T) {
	orders := map[string][]int{
		"in order": {0, 1},
		"reversed": {1, 0},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.ctrl.HoverEnter(Media{Name: "A"})
			f.ctrl.HoverExit()
			f.ctrl.HoverEnter(Media{Name: "B"})
			f.ctrl.HoverExit()
			require.Len(t, f.scheduler.fns, 2)

			f.overview.Reset()
			for _, i := range order {
				f.scheduler.fns[i]()
			}
			calls := f.overview.Calls()
			assert.NotContains(t, calls, "focus:A")
			assert.NotContains(t, calls, "focus:B")
			assert.Equal(t, "idle", calls[len(calls)-1])
			assert.Equal(t, SignalExit, f.ctrl.Hover().Latest())
		})
	}
}

func TestHoverWithTimerScheduler(t *testing.T) {
	overview := &fakeOverview{}
	h := NewHoverCoordinator(overview, nil, 5*time.Millisecond)
	h.OnEnter(Media{Name: "A"})
	h.OnExit()

	assert.Eventually(t, func() bool {
		calls := overview.Calls()
		return len(calls) == 2 && calls[1] == "idle"
	}, time.Second, time.Millisecond)
}

func TestRenameWithEmptyCandidateKeepsName(t *testing.T) {
	f := newFixture(t).ready("Beach")
	require.True(t, f.ctrl.RequestRename())
	assert.Equal(t, RenameEditing, f.ctrl.RenameState())
	assert.True(t, f.header.Editing())

	f.ctrl.Blur("")
	f.ctrl.Wait()

	assert.Equal(t, Named("Beach"), f.ctrl.Name())
	assert.Equal(t, "Beach", f.ctrl.Label())
	assert.Empty(t, f.worker.msgs)
	assert.Len(t, f.events.named("newName"), 1)
	assert.Equal(t, RenameIdle, f.ctrl.RenameState())
	assert.False(t, f.header.Editing())

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "?attribute=tator_user_sections::Beach", calls[0].Query)
	assert.Equal(t, "Beach", calls[0].Body.(rest.AttributePatch).Attributes[AttributeKey])
}

func TestRenameCommitsNewName(t *testing.T) {
	f := newFixture(t).ready("Beach")
	f.files.sectionSets = nil
	require.True(t, f.ctrl.RequestRename())

	f.ctrl.Blur("NewName")
	f.ctrl.Wait()

	require.Len(t, f.worker.msgs, 1)
	assert.Equal(t, RenameSection{FromName: "Beach", ToName: "NewName"}, f.worker.msgs[0])

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "patch", calls[0].Method)
	assert.Equal(t, "7", calls[0].ProjectID)
	assert.Equal(t, "?attribute=tator_user_sections::Beach", calls[0].Query)
	assert.Equal(t, "NewName", calls[0].Body.(rest.AttributePatch).Attributes[AttributeKey])

	assert.Equal(t, Named("NewName"), f.ctrl.Name())
	assert.Equal(t, "attribute=tator_user_sections::NewName", f.ctrl.Filter().Predicate())
	assert.Equal(t, "NewName", f.header.Label)
	assert.Equal(t, "NewName", f.files.Section)
	assert.Contains(t, f.files.sectionSets, "NewName")

	changed := f.events.named("newName")
	require.Len(t, changed, 1)
	assert.Equal(t, NameChanged{Name: "NewName"}, changed[0])
	assert.Equal(t, RenameIdle, f.ctrl.RenameState())
}

func TestRenameEnterThenBlurFinalizesOnce(t *testing.T) {
	f := newFixture(t).ready("Beach")
	require.True(t, f.ctrl.RequestRename())

	f.ctrl.CommitKey("Dunes")
	f.ctrl.Blur("Dunes")
	f.ctrl.Wait()

	assert.Len(t, f.worker.msgs, 1)
	assert.Len(t, f.api.Calls(), 1)
	assert.Len(t, f.events.named("newName"), 1)
}

func TestRenameRequestWhileEditingIsNoop(t *testing.T) {
	f := newFixture(t).ready("Beach")
	require.True(t, f.ctrl.RequestRename())
	assert.False(t, f.ctrl.RequestRename())
	assert.Equal(t, RenameEditing, f.ctrl.RenameState())
}

func TestRenameSameNameSendsNoWorkerMessage(t *testing.T) {
	f := newFixture(t).ready("Beach")
	require.True(t, f.ctrl.RequestRename())
	f.ctrl.Blur("Beach")
	f.ctrl.Wait()

	assert.Empty(t, f.worker.msgs)
	assert.Len(t, f.api.Calls(), 1)
	assert.Len(t, f.events.named("newName"), 1)
}

func TestRenameUnnamedSectionTargetsNullQuery(t *testing.T) {
	f := newFixture(t).ready("null")
	assert.Equal(t, "Unnamed Section", f.ctrl.Label())
	assert.Equal(t, "attribute_null=tator_user_sections::true", f.ctrl.Filter().Predicate())

	require.True(t, f.ctrl.RequestRename())
	f.ctrl.Blur("Beach")
	f.ctrl.Wait()

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "?attribute_null=tator_user_sections::true", calls[0].Query)
	assert.Equal(t, "Beach", calls[0].Body.(rest.AttributePatch).Attributes[AttributeKey])
	assert.Equal(t, RenameSection{FromName: "Unnamed Section", ToName: "Beach"}, f.worker.msgs[0])
	assert.Equal(t, "attribute=tator_user_sections::Beach", f.ctrl.Filter().Predicate())
}

func TestRenameUnnamedSectionUnchangedStaysUnnamed(t *testing.T) {
	f := newFixture(t).ready("null")
	require.True(t, f.ctrl.RequestRename())
	f.ctrl.Blur("")
	f.ctrl.Wait()

	assert.True(t, f.ctrl.Name().IsUnnamed())
	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Body.(rest.AttributePatch).Attributes[AttributeKey])
}

func TestRenameToNullSentinelUnnamesSection(t *testing.T) {
	f := newFixture(t).ready("Beach")
	require.True(t, f.ctrl.RequestRename())
	f.ctrl.CommitKey("null")
	f.ctrl.Wait()

	assert.True(t, f.ctrl.Name().IsUnnamed())
	assert.Equal(t, UnnamedLabel, f.ctrl.Label())
	assert.Equal(t, UnnamedLabel, f.header.Label)
	assert.Equal(t, "attribute_null=tator_user_sections::true", f.ctrl.Filter().Predicate())

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "?attribute=tator_user_sections::Beach", calls[0].Query)
	assert.Nil(t, calls[0].Body.(rest.AttributePatch).Attributes[AttributeKey])
	changed := f.events.named("newName")
	require.Len(t, changed, 1)
	assert.Equal(t, NameChanged{Name: UnnamedLabel}, changed[0])
}

func TestRenameWithoutWorkerStillCommits(t *testing.T) {
	f := newFixture(t).ready("Beach")
	f.ctrl.SetWorker(nil)
	require.True(t, f.ctrl.RequestRename())
	f.ctrl.Blur("Dunes")
	f.ctrl.Wait()

	assert.Equal(t, "Dunes", f.ctrl.Label())
	assert.Len(t, f.api.Calls(), 1)
}

func TestActionsRequireProjectAndName(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctrl.LaunchAlgorithm("tracker")
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = f.ctrl.RequestDownload(false)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, f.ctrl.RequestDelete(), ErrNotReady)
	assert.False(t, f.ctrl.RequestRename())

	f.ctrl.SetProjectID("7")
	assert.False(t, f.ctrl.Ready())
	_, err = f.ctrl.LaunchAlgorithm("tracker")
	assert.ErrorIs(t, err, ErrNotReady)

	assert.Empty(t, f.api.Calls())
	assert.Empty(t, f.events.events)
}

func TestRewiringDoesNotDuplicateHandlers(t *testing.T) {
	f := newFixture(t).ready("Beach")
	f.ctrl.SetNameAttribute("Beach")
	f.ctrl.SetNameAttribute("Dunes")
	f.ctrl.SetProjectID("7")

	_, err := f.ctrl.LaunchAlgorithm("tracker")
	require.NoError(t, err)
	f.ctrl.Wait()

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "?attribute=tator_user_sections::Dunes", calls[0].Body.(rest.AlgorithmLaunch).MediaQuery)
	assert.Len(t, f.notifier.notices, 1)
}

func TestLaunchAlgorithm(t *testing.T) {
	f := newFixture(t).ready("Beach")
	p, err := f.ctrl.LaunchAlgorithm("tracker")
	require.NoError(t, err)
	require.NotNil(t, p)
	f.ctrl.Wait()

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, rest.AlgorithmLaunch{
		AlgorithmName: "tracker",
		MediaQuery:    "?attribute=tator_user_sections::Beach",
	}, calls[0].Body)
	assert.Equal(t, []string{"Algorithm launched!"}, f.notifier.notices)
	assert.Empty(t, f.notifier.errors)
}

func TestLaunchAlgorithmFailureNotifies(t *testing.T) {
	f := newFixture(t).ready("Beach")
	f.api.status = 400
	_, err := f.ctrl.LaunchAlgorithm("tracker")
	require.NoError(t, err)
	f.ctrl.Wait()

	assert.Equal(t, []string{"Error launching algorithm!"}, f.notifier.errors)
	actionErr := <-f.ctrl.Errors()
	assert.Equal(t, ActionLaunchAlgorithm, actionErr.Action)
	assert.Equal(t, 400, actionErr.StatusCode)
}

func TestRequestDownload(t *testing.T) {
	f := newFixture(t).ready("Beach")
	_, err := f.ctrl.RequestDownload(true)
	require.NoError(t, err)
	f.ctrl.Wait()

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, rest.PackageCreate{
		PackageName:  "Beach",
		MediaQuery:   "?attribute=tator_user_sections::Beach",
		UseOriginals: true,
		Annotations:  true,
	}, calls[0].Body)
	assert.Equal(t, 1, f.notifier.downloads)
	assert.Equal(t, []string{"Creating zip file!"}, f.notifier.notices)
}

// A failed package request shows nothing by default. The failure is still
// observable on the error channel; DownloadFailureNotify opts into a toast.
func TestRequestDownloadFailurePolicy(t *testing.T) {
	t.Run("silent", func(t *testing.T) {
		f := newFixture(t).ready("Beach")
		f.api.status = 500
		_, err := f.ctrl.RequestDownload(false)
		require.NoError(t, err)
		f.ctrl.Wait()

		assert.Empty(t, f.notifier.errors)
		assert.Empty(t, f.notifier.notices)
		assert.Zero(t, f.notifier.downloads)
		actionErr := <-f.ctrl.Errors()
		assert.Equal(t, ActionCreatePackage, actionErr.Action)
		assert.Equal(t, 500, actionErr.StatusCode)
	})

	t.Run("notify", func(t *testing.T) {
		f := newFixture(t, func(o *Options) { o.DownloadFailures = DownloadFailureNotify }).ready("Beach")
		f.api.status = 500
		_, err := f.ctrl.RequestDownload(false)
		require.NoError(t, err)
		f.ctrl.Wait()

		assert.Equal(t, []string{"Error creating zip file!"}, f.notifier.errors)
		assert.Zero(t, f.notifier.downloads)
	})
}

func TestTransportFailureIsObservable(t *testing.T) {
	f := newFixture(t).ready("Beach")
	f.api.err = errUnreachable
	_, err := f.ctrl.LaunchAlgorithm("tracker")
	require.NoError(t, err)
	f.ctrl.Wait()

	actionErr := <-f.ctrl.Errors()
	assert.ErrorIs(t, actionErr, errUnreachable)
	assert.Empty(t, f.notifier.notices)
	assert.Empty(t, f.notifier.errors)
}

func TestRequestDeleteEmitsRemoveSection(t *testing.T) {
	f := newFixture(t).ready("Beach")
	require.NoError(t, f.ctrl.RequestDelete())

	removed := f.events.named("remove")
	require.Len(t, removed, 1)
	ev := removed[0].(RemoveSection)
	assert.Equal(t, "Beach", ev.Name)
	assert.Equal(t, "7", ev.ProjectID)
	assert.Equal(t, "attribute=tator_user_sections::Beach", ev.Filter.Predicate())
	assert.Empty(t, f.api.Calls())
}

func TestMediaCountRefreshesOnlyOnChange(t *testing.T) {
	f := newFixture(t).ready("Beach")
	f.overview.Reset()

	f.ctrl.SetMediaCount(0)
	assert.False(t, f.files.Visible)
	assert.False(t, f.overview.visible)
	assert.Equal(t, "0 Files", f.header.Count)

	f.ctrl.SetMediaCount(5)
	f.ctrl.SetMediaCount(5)
	assert.Equal(t, 1, f.files.countSets)
	assert.Equal(t, []string{"all"}, f.overview.Calls())
	assert.True(t, f.files.Visible)
	assert.True(t, f.overview.visible)

	f.ctrl.SetMediaCount(0)
	f.ctrl.SetMediaCount(5)
	assert.Equal(t, 1, f.files.countSets)

	f.ctrl.SetMediaCount(1)
	assert.Equal(t, 2, f.files.countSets)
	assert.Equal(t, "1 File", f.header.Count)
}

func TestSetNameRecomputesFilterOnce(t *testing.T) {
	f := newFixture(t)
	f.files.sectionSets = nil
	f.ctrl.SetNameAttribute("Beach")
	f.ctrl.SetUsername("alice")
	f.ctrl.SetToken("tok")
	f.ctrl.SetProjectID("7")

	assert.Equal(t, []string{"Beach"}, f.files.sectionSets)
	assert.Equal(t, []string{"all"}, f.overview.Calls())
	assert.Equal(t, "alice", f.files.Username)
	assert.Equal(t, "tok", f.files.Token)
	assert.Equal(t, "7", f.files.ProjectID)
	assert.Equal(t, f.ctrl.Filter(), f.files.Filter())
}

func TestSetSectionsExcludesOwnName(t *testing.T) {
	f := newFixture(t).ready("Beach")
	f.ctrl.SetSections([]string{"Dunes", "Beach", "Forest"})
	assert.Equal(t, []string{"Dunes", "Forest"}, f.files.Sections)
}

func TestSetAlgorithmsAndCardInfo(t *testing.T) {
	f := newFixture(t).ready("Beach")
	algs := []string{"tracker", "detector"}
	f.ctrl.SetAlgorithms(algs)
	algs[0] = "changed"
	f.ctrl.SetCardInfo(CardInfo{Fields: []string{"Camera"}})

	assert.Equal(t, []string{"tracker", "detector"}, f.files.Algorithms)
	assert.Equal(t, []string{"Camera"}, f.files.CardInfo.Fields)
	assert.Equal(t, f.worker, f.files.Worker)
}

func TestBeachScenario(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.PageQuery = "?search=dog" }).ready("Beach")
	f.ctrl.SetMediaIDs([]int64{1, 2, 3})

	assert.Equal(t, "3 Files", f.header.Count)
	assert.Equal(t, []int64{1, 2, 3}, f.files.IDs)
	assert.Equal(t, 3, f.ctrl.MediaCount())

	nav := f.ctrl.OpenMedia(2)
	assert.Equal(t, "/7/annotation/2?attribute=tator_user_sections::Beach&search=dog", nav.URL)

	navs := f.events.named("navigate")
	require.Len(t, navs, 1)
	assert.Equal(t, nav, navs[0])
}

func TestOpenMediaWithoutSearch(t *testing.T) {
	f := newFixture(t).ready("null")
	nav := f.ctrl.OpenMedia(9)
	assert.Equal(t, "/7/annotation/9?attribute_null=tator_user_sections::true", nav.URL)
}

func TestRenameSectionWireFormat(t *testing.T) {
	data, err := RenameSection{FromName: "Beach", ToName: "Dunes"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"renameSection","fromName":"Beach","toName":"Dunes"}`, string(data))
}
