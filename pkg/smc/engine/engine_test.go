// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/netsec-ops/smcctl/internal/smctest"
	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

func links(pairs ...string) []map[string]string {
	result := make([]map[string]string, 0, len(pairs)/2)

	for i := 0; i+1 < len(pairs); i += 2 {
		result = append(result, map[string]string{"rel": pairs[i], "href": pairs[i+1]})
	}

	return result
}

var memberOps = []string{
	"go_online", "go_offline", "go_standby", "lock_online", "lock_offline",
	"reset_user_db", "reboot", "time_sync", "ssh", "change_ssh_pwd",
	"fetch", "bind", "unbind", "cancel_unbind", "initial_contact",
	"status", "appliance_status", "diagnostic", "certificate_info", "sginfo",
}

func memberLinks(prefix string) []map[string]string {
	var pairs []string

	for _, op := range memberOps {
		pairs = append(pairs, op, prefix+"/"+op)
	}

	return links(pairs...)
}

type EngineSuite struct {
	suite.Suite

	srv *smctest.Server
}

func (suite *EngineSuite) SetupTest() {
	suite.srv = smctest.New()

	suite.srv.AddElement(client.ElementRef{Name: "fw1", Href: "/elements/single_fw/1", Type: "single_fw"})
	suite.srv.SetResource("/elements/single_fw/1", map[string]any{
		"name": "fw1",
		"link": links(
			"self", "/elements/single_fw/1",
			"refresh", "/fw1/refresh",
			"upload", "/fw1/upload",
			"export", "/fw1/export",
			"generate_snapshot", "/fw1/generate_snapshot",
			"add_route", "/fw1/add_route",
			"blacklist", "/fw1/blacklist",
			"flush_blacklist", "/fw1/flush_blacklist",
			"routing", "/fw1/routing",
			"interfaces", "/fw1/interfaces",
			"physical_interface", "/fw1/physical_interface",
			"nodes", "/fw1/nodes",
			"refresh", "/fw1/refresh-duplicate",
		),
		"engine_version":        "6.5.1",
		"log_server_ref":        "/elements/log_server/1",
		"domain_server_address": []map[string]any{{"rank": 1, "value": "8.8.4.4"}, {"rank": 0, "value": "8.8.8.8"}},
		"nodes": []map[string]any{
			{"firewall_node": map[string]any{"name": "fw1 node 1", "nodeid": 1, "link": memberLinks("/fw1/node1")}},
		},
	}, `"etag-fw1"`)
	suite.srv.SetResource("/fw1/node1/status", map[string]any{"name": "fw1 node 1", "status": "Online", "installed_policy": "Standard"}, "")

	suite.srv.AddElement(client.ElementRef{Name: "cl1", Href: "/elements/fw_cluster/2", Type: "fw_cluster"})
	suite.srv.SetResource("/elements/fw_cluster/2", map[string]any{
		"name":         "cl1",
		"cluster_mode": "balancing",
		"link":         links("self", "/elements/fw_cluster/2", "go_online", "/cl1/go_online", "refresh", "/cl1/refresh"),
		"nodes": []map[string]any{
			{"firewall_node": map[string]any{"name": "node1", "nodeid": 1, "link": memberLinks("/cl1/node1")}},
			{"firewall_node": map[string]any{"name": "node2", "nodeid": 2, "link": memberLinks("/cl1/node2")}},
		},
	}, `"etag-cl1"`)
	suite.srv.SetResource("/cl1/node1/status", map[string]any{"name": "node1", "status": "Online", "installed_policy": "Cluster Policy"}, "")
	suite.srv.SetResource("/cl1/node2/status", map[string]any{"name": "node2", "status": "Standby", "installed_policy": "Cluster Policy"}, "")
}

func (suite *EngineSuite) load(name string) *engine.Engine {
	e := engine.New(suite.srv,
		engine.WithLogger(zaptest.NewLogger(suite.T())),
		engine.WithTaskOptions(task.WithInterval(time.Millisecond)),
	)

	suite.Require().NoError(e.Load(suite.T().Context(), name))

	return e
}

func (suite *EngineSuite) TestLoad() {
	e := suite.load("fw1")

	suite.Assert().True(e.Loaded())
	suite.Assert().Equal("fw1", e.Name())
	suite.Assert().Equal("/elements/single_fw/1", e.Href())
	suite.Assert().Equal(`"etag-fw1"`, e.ETag())
	suite.Assert().False(e.ClusterMode())
	suite.Assert().Equal("6.5.1", e.Version())
	suite.Assert().Equal("/elements/log_server/1", e.LogServerRef())
	suite.Assert().Equal([]engine.DNSEntry{{Rank: 0, Value: "8.8.8.8"}, {Rank: 1, Value: "8.8.4.4"}}, e.DNS())
	suite.Assert().Equal([]string{"fw1 node 1"}, e.Members().Names())

	member, ok := e.Members().Get("fw1 node 1")
	suite.Require().True(ok)
	suite.Assert().Equal(engine.NodeTypeFirewall, member.Type)
	suite.Assert().Equal(1, member.NodeID)

	href, ok := e.Links().Resolve("refresh")
	suite.Require().True(ok)
	suite.Assert().Equal("/fw1/refresh", href)

	cl := suite.load("cl1")
	suite.Assert().True(cl.ClusterMode())
	suite.Assert().Equal([]string{"node1", "node2"}, cl.Members().Names())
}

func (suite *EngineSuite) TestLoadNotFound() {
	e := engine.New(suite.srv)

	err := e.Load(suite.T().Context(), "missing")
	suite.Require().ErrorIs(err, engine.ErrNotFound)
	suite.Assert().False(e.Loaded())

	_, err = e.GoOnline(suite.T().Context(), "", "")
	suite.Require().ErrorIs(err, engine.ErrNotLoaded)
}

func (suite *EngineSuite) TestReloadReplacesIndices() {
	e := suite.load("fw1")

	suite.srv.SetResource("/elements/single_fw/1", map[string]any{
		"name": "fw1",
		"link": links("self", "/elements/single_fw/1", "upload", "/fw1/upload-v2"),
		"nodes": []map[string]any{
			{"firewall_node": map[string]any{"name": "fw1 node 1", "nodeid": 1, "link": links("reboot", "/fw1/node1/reboot-v2")}},
		},
	}, `"etag-fw1-v2"`)

	suite.Require().NoError(e.Reload(suite.T().Context()))

	suite.Assert().Equal(`"etag-fw1-v2"`, e.ETag())

	_, ok := e.Links().Resolve("refresh")
	suite.Assert().False(ok)

	_, err := e.GoOnline(suite.T().Context(), "", "")
	suite.Require().ErrorIs(err, engine.ErrCapabilityUnavailable)

	_, err = e.Reboot(suite.T().Context(), "", "")
	suite.Require().NoError(err)

	puts := suite.srv.Requests(http.MethodPut)
	suite.Require().Len(puts, 1)
	suite.Assert().Equal("/fw1/node1/reboot-v2", puts[0].Href)
	suite.Assert().Equal(`"etag-fw1-v2"`, puts[0].ETag)
}

func (suite *EngineSuite) TestSingleEngineIgnoresMember() {
	e := suite.load("fw1")
	ctx := suite.T().Context()

	for _, member := range []string{"", "fw1 node 1", "node3", "anything"} {
		_, err := e.GoOnline(ctx, member, "maintenance")
		suite.Require().NoError(err, member)
	}

	puts := suite.srv.Requests(http.MethodPut)
	suite.Require().Len(puts, 4)

	for _, put := range puts {
		suite.Assert().Equal("/fw1/node1/go_online", put.Href)
		suite.Assert().Equal(`"etag-fw1"`, put.ETag)
		suite.Assert().Equal(url.Values{"comment": {"maintenance"}}, put.Params)
	}
}

func (suite *EngineSuite) TestClusterRejectsUnknownMember() {
	e := suite.load("cl1")
	ctx := suite.T().Context()

	for _, member := range []string{"node3", ""} {
		_, err := e.GoOnline(ctx, member, "")

		var addrErr *engine.ClusterAddressingError

		suite.Require().ErrorAs(err, &addrErr, member)
		suite.Assert().Equal("cl1", addrErr.Engine)
		suite.Assert().Equal(member, addrErr.Member)
		suite.Assert().Equal([]string{"node1", "node2"}, addrErr.Known)
		suite.Assert().NotErrorIs(err, engine.ErrCapabilityUnavailable)
	}

	_, err := e.Status(ctx, "node3")
	suite.Require().ErrorAs(err, new(*engine.ClusterAddressingError))

	suite.Assert().Empty(suite.srv.Requests(http.MethodPut))
}

func (suite *EngineSuite) TestClusterMember() {
	e := suite.load("cl1")
	ctx := suite.T().Context()

	_, err := e.GoOnline(ctx, "node2", "")
	suite.Require().NoError(err)

	_, err = e.ChangeSSHPassword(ctx, "node1", "s3cret", "rotate")
	suite.Require().NoError(err)

	puts := suite.srv.Requests(http.MethodPut)
	suite.Require().Len(puts, 2)
	suite.Assert().Equal("/cl1/node2/go_online", puts[0].Href)
	suite.Assert().Nil(puts[0].Params)
	suite.Assert().Equal("/cl1/node1/change_ssh_pwd", puts[1].Href)
	suite.Assert().Equal(map[string]string{"value": "s3cret"}, puts[1].Payload)
	suite.Assert().Equal(`"etag-cl1"`, puts[1].ETag)

	statuses, err := e.Status(ctx, "node2")
	suite.Require().NoError(err)
	suite.Require().Len(statuses, 1)
	suite.Assert().Equal("node2", statuses[0].Member)
	suite.Assert().Equal("Standby", statuses[0].Status)
}

func (suite *EngineSuite) TestCapabilityUnavailable() {
	e := suite.load("fw1")
	ctx := suite.T().Context()

	_, err := e.VirtualResources(ctx)
	suite.Require().ErrorIs(err, engine.ErrCapabilityUnavailable)
	suite.Assert().True(engine.IsCapabilityUnavailable(err))

	_, err = e.Antispoofing(ctx)
	suite.Require().ErrorIs(err, engine.ErrCapabilityUnavailable)

	gets := len(suite.srv.Requests(http.MethodGet))

	cl := suite.load("cl1")

	_, err = cl.Upload(ctx, "Standard")
	suite.Require().ErrorIs(err, engine.ErrCapabilityUnavailable)

	suite.Assert().Len(suite.srv.Requests(http.MethodGet), gets+1)
	suite.Assert().Empty(suite.srv.Requests(http.MethodPost))
}

func (suite *EngineSuite) TestRefreshProgress() {
	e := suite.load("fw1")

	suite.srv.Handle(http.MethodPost, "/fw1/refresh", smctest.Follower("/task/9"))
	suite.srv.SetSequence("/task/9", "",
		map[string]any{"in_progress": true, "last_message": "starting"},
		map[string]any{"in_progress": true, "last_message": "starting"},
		map[string]any{"success": true, "link": links("result", "/task/9/result")},
	)

	follower, err := e.Refresh(suite.T().Context())
	suite.Require().NoError(err)

	var events []task.Event

	for ev := range follower.Events(suite.T().Context()) {
		events = append(events, ev)
	}

	suite.Assert().Equal([]task.Event{
		task.EventProgress{Message: "starting"},
		task.EventDone{Href: "/task/9/result"},
	}, events)
}

func (suite *EngineSuite) TestUploadInstalledPolicy() {
	e := suite.load("fw1")

	suite.srv.Handle(http.MethodPost, "/fw1/upload", smctest.Follower("/task/10"))

	follower, err := e.Upload(suite.T().Context(), "", task.WithoutWait())
	suite.Require().NoError(err)

	href, err := follower.Wait(suite.T().Context())
	suite.Require().NoError(err)
	suite.Assert().Equal("/task/10", href)

	posts := suite.srv.Requests(http.MethodPost)
	suite.Require().Len(posts, 1)
	suite.Assert().Equal("/fw1/upload", posts[0].Href)
	suite.Assert().Equal(url.Values{"filter": {"Standard"}}, posts[0].Params)

	_, err = e.Upload(suite.T().Context(), "Custom", task.WithoutWait())
	suite.Require().NoError(err)

	posts = suite.srv.Requests(http.MethodPost)
	suite.Require().Len(posts, 2)
	suite.Assert().Equal(url.Values{"filter": {"Custom"}}, posts[1].Params)
}

func (suite *EngineSuite) TestUploadWithoutInstalledPolicy() {
	suite.srv.SetResource("/fw1/node1/status", map[string]any{"name": "fw1 node 1", "status": "No Policy Installed"}, "")

	e := suite.load("fw1")

	_, err := e.Upload(suite.T().Context(), "")
	suite.Require().ErrorIs(err, engine.ErrNoInstalledPolicy)
	suite.Assert().Empty(suite.srv.Requests(http.MethodPost))
}

func (suite *EngineSuite) TestExport() {
	e := suite.load("fw1")

	suite.srv.Handle(http.MethodPost, "/fw1/export", smctest.Follower("/task/11"))
	suite.srv.SetResource("/task/11", map[string]any{"success": true, "link": links("result", "/task/11/result")}, "")
	suite.srv.SetDownload("/task/11/result", []byte("<export/>"))

	dest := filepath.Join(suite.T().TempDir(), "export.zip")

	suite.Require().NoError(e.Export(suite.T().Context(), dest, task.WithoutWait()))

	contents, err := os.ReadFile(dest)
	suite.Require().NoError(err)
	suite.Assert().Equal("<export/>", string(contents))

	posts := suite.srv.Requests(http.MethodPost)
	suite.Require().Len(posts, 1)
	suite.Assert().Equal(url.Values{"filter": {"fw1"}}, posts[0].Params)
}

func (suite *EngineSuite) TestGenerateSnapshotWithoutResult() {
	e := suite.load("fw1")

	suite.srv.Handle(http.MethodPost, "/fw1/generate_snapshot", smctest.Follower("/task/12"))
	suite.srv.SetResource("/task/12", map[string]any{"success": true}, "")

	err := e.GenerateSnapshot(suite.T().Context(), filepath.Join(suite.T().TempDir(), "snapshot.zip"))
	suite.Require().Error(err)
	suite.Assert().Contains(err.Error(), "without a result")
}

func (suite *EngineSuite) TestRoutesAndBlacklist() {
	e := suite.load("fw1")
	ctx := suite.T().Context()

	_, err := e.AddRoute(ctx, "10.0.0.254", "0.0.0.0/0")
	suite.Require().NoError(err)

	_, err = e.BlacklistAdd(ctx, "192.0.2.10/32", "0.0.0.0/32", 0)
	suite.Require().NoError(err)

	_, err = e.BlacklistFlush(ctx)
	suite.Require().NoError(err)

	posts := suite.srv.Requests(http.MethodPost)
	suite.Require().Len(posts, 2)
	suite.Assert().Equal("/fw1/add_route", posts[0].Href)
	suite.Assert().Equal(url.Values{"gateway": {"10.0.0.254"}, "network": {"0.0.0.0/0"}}, posts[0].Params)

	var entry map[string]any

	suite.Require().NoError(posts[1].Decode(&entry))
	suite.Assert().EqualValues(3600, entry["duration"])
	suite.Assert().Equal("192.0.2.10/32", entry["end_point1"].(map[string]any)["ip_network"])
	suite.Assert().Equal("address", entry["end_point2"].(map[string]any)["address_mode"])

	deletes := suite.srv.Requests(http.MethodDelete)
	suite.Require().Len(deletes, 1)
	suite.Assert().Equal("/fw1/flush_blacklist", deletes[0].Href)
}

func (suite *EngineSuite) TestInterfaces() {
	e := suite.load("fw1")
	ctx := suite.T().Context()

	suite.srv.SetResource("/fw1/interfaces", map[string]any{"result": []client.ElementRef{{Name: "Interface 0", Href: "/fw1/if/0"}, {Name: "Interface 3", Href: "/fw1/if/3"}}}, "")
	suite.srv.SetResource("/fw1/physical_interface", []client.ElementRef{{Name: "Interface 0", Href: "/fw1/if/0"}}, "")
	suite.srv.SetResource("/fw1/if/0", map[string]any{"interface_id": "0", "mtu": 1500, "vlanInterfaces": []any{}}, `"etag-if0"`)

	refs, err := e.Interfaces(ctx, engine.InterfacesAll)
	suite.Require().NoError(err)
	suite.Assert().Len(refs, 2)

	_, err = e.DeletePhysicalInterface(ctx, "Interface 3")
	suite.Require().NoError(err)

	_, err = e.DeletePhysicalInterface(ctx, "Interface 9")
	suite.Require().ErrorIs(err, engine.ErrNotFound)

	_, err = e.AddVLANToPhysicalInterface(ctx, "0", 42, nil, "")
	suite.Require().NoError(err)

	deletes := suite.srv.Requests(http.MethodDelete)
	suite.Require().Len(deletes, 1)
	suite.Assert().Equal("/fw1/if/3", deletes[0].Href)

	puts := suite.srv.Requests(http.MethodPut)
	suite.Require().Len(puts, 1)
	suite.Assert().Equal("/fw1/if/0", puts[0].Href)
	suite.Assert().Equal(`"etag-if0"`, puts[0].ETag)

	var doc struct {
		MTU            int `json:"mtu"`
		VLANInterfaces []struct {
			InterfaceID string `json:"interface_id"`
		} `json:"vlanInterfaces"`
	}

	suite.Require().NoError(puts[0].Decode(&doc))
	suite.Assert().Equal(1500, doc.MTU)
	suite.Require().Len(doc.VLANInterfaces, 1)
	suite.Assert().Equal("0.42", doc.VLANInterfaces[0].InterfaceID)

	_, err = e.AddLayer3Interface(ctx, "1", "192.168.1.1", "192.168.1.0/24", false)
	suite.Require().NoError(err)

	posts := suite.srv.Requests(http.MethodPost)
	suite.Require().Len(posts, 1)
	suite.Assert().Equal("/fw1/physical_interface", posts[0].Href)
}

func (suite *EngineSuite) TestNodeCreates() {
	e := suite.load("fw1")
	ctx := suite.T().Context()

	suite.srv.Handle(http.MethodPost, "/fw1/node1/initial_contact", func(any, url.Values) (*client.Result, error) {
		return &client.Result{StatusCode: http.StatusOK, Body: []byte("#config\n")}, nil
	})

	_, err := e.BindLicense(ctx, "", "")
	suite.Require().NoError(err)

	_, err = e.BindLicense(ctx, "", "lic-1")
	suite.Require().NoError(err)

	dest := filepath.Join(suite.T().TempDir(), "contact.cfg")

	cfg, err := e.InitialContact(ctx, "", engine.InitialContactOptions{EnableSSH: true, TimeZone: "UTC", Filename: dest})
	suite.Require().NoError(err)
	suite.Assert().Equal("#config\n", string(cfg))

	saved, err := os.ReadFile(dest)
	suite.Require().NoError(err)
	suite.Assert().Equal(cfg, saved)

	posts := suite.srv.Requests(http.MethodPost)
	suite.Require().Len(posts, 3)
	suite.Assert().Nil(posts[0].Params)
	suite.Assert().Equal(url.Values{"license_item_id": {"lic-1"}}, posts[1].Params)
	suite.Assert().Equal(url.Values{"enable_ssh": {"true"}, "time_zone": {"UTC"}}, posts[2].Params)
}

func (suite *EngineSuite) TestAggregatedReads() {
	e := suite.load("fw1")
	ctx := suite.T().Context()

	suite.srv.SetResource("/fw1/node1/appliance_status", map[string]any{"interface_statuses": []any{}}, "")

	docs, err := e.ApplianceStatus(ctx, "")
	suite.Require().NoError(err)
	suite.Require().Len(docs, 1)
	suite.Assert().Equal("fw1 node 1", docs[0].Member)
	suite.Assert().JSONEq(`{"interface_statuses":[]}`, string(docs[0].Data))

	_, err = e.Diagnostics(ctx, "")
	suite.Require().Error(err)
	suite.Assert().True(client.IsNotFound(err))
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func TestClusterModeDecoding(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		raw     string
		cluster bool
	}{
		{`true`, true},
		{`false`, false},
		{`null`, false},
		{`"balancing"`, true},
		{`"standby"`, true},
		{`""`, false},
	} {
		srv := smctest.New()
		srv.AddElement(client.ElementRef{Name: "e", Href: "/e"})
		srv.SetResource("/e", `{"name":"e","cluster_mode":`+tt.raw+`}`, "")

		e := engine.New(srv)

		if err := e.Load(t.Context(), "e"); err != nil {
			t.Fatalf("%s: %v", tt.raw, err)
		}

		if e.ClusterMode() != tt.cluster {
			t.Errorf("%s: cluster mode %v, expected %v", tt.raw, e.ClusterMode(), tt.cluster)
		}
	}
}

func TestDecodeRefsEnvelope(t *testing.T) {
	t.Parallel()

	srv := smctest.New()
	srv.AddElement(client.ElementRef{Name: "e", Href: "/e"})
	srv.SetResource("/e", map[string]any{"name": "e", "link": links("snapshots", "/e/snapshots")}, "")
	srv.SetResource("/e/snapshots", json.RawMessage(`[{"name":"s1","href":"/s/1","type":"snapshot"}]`), "")

	e := engine.New(srv)

	if err := e.Load(t.Context(), "e"); err != nil {
		t.Fatal(err)
	}

	refs, err := e.Snapshots(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if len(refs) != 1 || refs[0].Name != "s1" {
		t.Errorf("unexpected snapshots %v", refs)
	}
}
