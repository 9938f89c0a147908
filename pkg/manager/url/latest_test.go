package url

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LatestOnly Manager", func() {
	var (
		mgr *LatestOnlyManager
		ctx context.Context
	)

	BeforeEach(func() {
		mgr = NewLatestOnlyManager()
		ctx = context.Background()
	})

	Describe("Name", func() {
		It("should return 'latest_only' as manager name", func() {
			Expect(mgr.Name()).To(Equal("latest_only"))
		})
	})

	Describe("DiscoverVersions", func() {
		It("should return the single latest record", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"versions": [{"version": "456.0.0"}]}`)
			}))
			defer server.Close()

			pkg := types.Package{Name: "cloudcli", VersionsURL: server.URL}
			versions, err := mgr.DiscoverVersions(ctx, pkg, platform.Platform{}, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(versions).To(HaveLen(1))
			Expect(versions[0].Version).To(Equal("456.0.0"))
		})

		It("should fail when the endpoint reports nothing", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"versions": []}`)
			}))
			defer server.Close()

			pkg := types.Package{Name: "cloudcli", VersionsURL: server.URL}
			_, err := mgr.DiscoverVersions(ctx, pkg, platform.Platform{}, 0)
			Expect(err).To(HaveOccurred())
		})

		It("should require versions_url", func() {
			_, err := mgr.DiscoverVersions(ctx, types.Package{Name: "cloudcli"}, platform.Platform{}, 0)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("versions_url"))
		})
	})

	Describe("Resolve", func() {
		var server *httptest.Server
		var pkg types.Package

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"versions": [{"version": "456.0.0"}]}`)
			}))
			pkg = types.Package{
				Name:        "cloudcli",
				VersionsURL: server.URL,
				URLTemplate: "https://example.com/cloudcli-{{.version}}-{{.os}}-{{.arch}}.tar.gz",
			}
		})

		AfterEach(func() {
			server.Close()
		})

		It("should resolve 'latest' to the reported version", func() {
			resolution, err := mgr.Resolve(ctx, pkg, "latest", platform.Platform{OS: "linux", Arch: "amd64"})
			Expect(err).ToNot(HaveOccurred())
			Expect(resolution.Version).To(Equal("456.0.0"))
			Expect(resolution.DownloadURL).To(Equal("https://example.com/cloudcli-456.0.0-linux-amd64.tar.gz"))
		})

		It("should refuse to pin any other version", func() {
			_, err := mgr.Resolve(ctx, pkg, "455.0.0", platform.Platform{OS: "linux", Arch: "amd64"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("only publishes its latest version"))
		})
	})
})
