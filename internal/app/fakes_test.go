package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"birthday_card_bot/internal/domain/birthday"
	"birthday_card_bot/internal/domain/event"
	"birthday_card_bot/internal/domain/platform"
	idb "birthday_card_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func discardEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakePlatform is an in-memory platform.Client with per-operation error
// injection.
type fakePlatform struct {
	guilds      []platform.Guild
	members     map[string]map[string]*platform.Member // guildID -> userID
	channels    map[string]*platform.Channel           // channelID
	roles       map[string][]platform.Role             // guildID
	nextChanID  int
	sent        map[string][]string // channelID -> messages
	hiddenFrom  map[string]string   // channelID -> userID hidden at creation
	deleted     map[string]string   // channelID -> audit reason
	rolesAdded  []string            // "guild/user/role"
	rolesRemove []string

	guildsErr        error
	createChannelErr map[string]error // guildID
	sendErr          map[string]error // channelID
	renameErr        error
	topicErr         error
	deleteErr        error
	removeRoleErr    error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		members:          make(map[string]map[string]*platform.Member),
		channels:         make(map[string]*platform.Channel),
		roles:            make(map[string][]platform.Role),
		sent:             make(map[string][]string),
		hiddenFrom:       make(map[string]string),
		deleted:          make(map[string]string),
		createChannelErr: make(map[string]error),
		sendErr:          make(map[string]error),
	}
}

func (f *fakePlatform) addGuild(id, name string) {
	f.guilds = append(f.guilds, platform.Guild{ID: id, Name: name})
}

func (f *fakePlatform) addMember(guildID string, m platform.Member) {
	if f.members[guildID] == nil {
		f.members[guildID] = make(map[string]*platform.Member)
	}
	cp := m
	f.members[guildID][m.UserID] = &cp
}

func (f *fakePlatform) removeMember(guildID, userID string) {
	delete(f.members[guildID], userID)
}

func (f *fakePlatform) addChannel(guildID, name, topic string) *platform.Channel {
	f.nextChanID++
	ch := &platform.Channel{
		ID:      fmt.Sprintf("chan-%d", f.nextChanID),
		GuildID: guildID,
		Name:    name,
		Topic:   topic,
	}
	f.channels[ch.ID] = ch
	return ch
}

func (f *fakePlatform) addRole(guildID, id, name string) {
	f.roles[guildID] = append(f.roles[guildID], platform.Role{ID: id, Name: name})
}

func (f *fakePlatform) guildChannels(guildID string) []*platform.Channel {
	var out []*platform.Channel
	for _, ch := range f.channels {
		if ch.GuildID == guildID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakePlatform) Guilds() ([]platform.Guild, error) {
	if f.guildsErr != nil {
		return nil, f.guildsErr
	}
	return append([]platform.Guild(nil), f.guilds...), nil
}

func (f *fakePlatform) Member(guildID, userID string) (*platform.Member, error) {
	m, ok := f.members[guildID][userID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakePlatform) TextChannels(guildID string) ([]platform.Channel, error) {
	var out []platform.Channel
	for _, ch := range f.guildChannels(guildID) {
		out = append(out, *ch)
	}
	return out, nil
}

func (f *fakePlatform) CreateHiddenChannel(guildID, name, topic, hiddenUserID string) (*platform.Channel, error) {
	if err := f.createChannelErr[guildID]; err != nil {
		return nil, err
	}
	ch := f.addChannel(guildID, name, topic)
	f.hiddenFrom[ch.ID] = hiddenUserID
	cp := *ch
	return &cp, nil
}

func (f *fakePlatform) SendMessage(channelID, content string) error {
	if err := f.sendErr[channelID]; err != nil {
		return err
	}
	if _, ok := f.channels[channelID]; !ok {
		return platform.ErrNotFound
	}
	f.sent[channelID] = append(f.sent[channelID], content)
	return nil
}

func (f *fakePlatform) RenameChannel(channelID, name string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.ErrNotFound
	}
	ch.Name = name
	return nil
}

func (f *fakePlatform) UpdateChannelTopic(channelID, topic string) error {
	if f.topicErr != nil {
		return f.topicErr
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.ErrNotFound
	}
	ch.Topic = topic
	return nil
}

func (f *fakePlatform) DeleteChannel(channelID, reason string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.channels[channelID]; !ok {
		return platform.ErrNotFound
	}
	delete(f.channels, channelID)
	f.deleted[channelID] = reason
	return nil
}

func (f *fakePlatform) RoleByName(guildID, name string) (*platform.Role, error) {
	for _, r := range f.roles[guildID] {
		if r.Name == name {
			cp := r
			return &cp, nil
		}
	}
	return nil, platform.ErrNotFound
}

func (f *fakePlatform) AddRole(guildID, userID, roleID string) error {
	f.rolesAdded = append(f.rolesAdded, guildID+"/"+userID+"/"+roleID)
	return nil
}

func (f *fakePlatform) RemoveRole(guildID, userID, roleID string) error {
	if f.removeRoleErr != nil {
		return f.removeRoleErr
	}
	f.rolesRemove = append(f.rolesRemove, guildID+"/"+userID+"/"+roleID)
	return nil
}

// fakeBirthdayRepo is an in-memory birthday.Repository.
type fakeBirthdayRepo struct {
	records map[string]*birthday.Record
	scanErr error
}

func newFakeBirthdayRepo() *fakeBirthdayRepo {
	return &fakeBirthdayRepo{records: make(map[string]*birthday.Record)}
}

func (r *fakeBirthdayRepo) Get(ctx context.Context, subjectID string) (*birthday.Record, error) {
	rec, ok := r.records[subjectID]
	if !ok {
		return nil, idb.ErrBirthdayNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeBirthdayRepo) Set(ctx context.Context, rec *birthday.Record) error {
	now := time.Now()
	cp := *rec
	if existing, ok := r.records[rec.SubjectID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.records[rec.SubjectID] = &cp
	rec.CreatedAt = cp.CreatedAt
	rec.UpdatedAt = cp.UpdatedAt
	return nil
}

func (r *fakeBirthdayRepo) ListAll(ctx context.Context) ([]*birthday.Record, error) {
	out := make([]*birthday.Record, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out, nil
}

func (r *fakeBirthdayRepo) ScanMatchingOffset(ctx context.Context, today time.Time, offsetDays int) ([]string, error) {
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	records, _ := r.ListAll(ctx)
	var matches []string
	for _, rec := range records {
		if rec.MonthDay.MatchesOffset(today, offsetDays) {
			matches = append(matches, rec.SubjectID)
		}
	}
	return matches, nil
}

func (r *fakeBirthdayRepo) ScanMatchingExact(ctx context.Context, today time.Time) ([]string, error) {
	return r.ScanMatchingOffset(ctx, today, 0)
}

// fakeEventRepo is an in-memory event.Repository. ListDue returns copies so
// that execution results only become visible through Update, as with the real
// store.
type fakeEventRepo struct {
	events    []*event.ScheduledEvent
	nextID    int64
	createErr error
	listErr   error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) Create(ctx context.Context, ev *event.ScheduledEvent) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	ev.ID = r.nextID
	ev.CreatedAt = time.Now()
	cp := *ev
	r.events = append(r.events, &cp)
	return nil
}

func (r *fakeEventRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*event.ScheduledEvent, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var due []*event.ScheduledEvent
	for _, ev := range r.events {
		if !ev.Completed && !ev.FireAt.After(now) {
			cp := *ev
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, ev *event.ScheduledEvent) error {
	for i, existing := range r.events {
		if existing.ID == ev.ID {
			cp := *ev
			r.events[i] = &cp
			return nil
		}
	}
	return idb.ErrEventNotFound
}

func (r *fakeEventRepo) byID(id int64) *event.ScheduledEvent {
	for _, ev := range r.events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}
