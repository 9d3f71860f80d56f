package lambdacloud_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"lambdacloud/pkg/lambdacloud"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// recordedRequest is what the fake API saw for one call
type recordedRequest struct {
	Method  string
	Path    string
	Header  http.Header
	Body    []byte
	HasBody bool
}

// fakeAPI serves canned envelopes keyed by "METHOD /path"
type fakeAPI struct {
	mu        sync.Mutex
	server    *httptest.Server
	requests  []recordedRequest
	responses map[string]cannedResponse
}

type cannedResponse struct {
	status int
	body   string
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{responses: make(map[string]cannedResponse)}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Header:  r.Header.Clone(),
			Body:    body,
			HasBody: r.ContentLength > 0 || len(body) > 0,
		})
		resp, ok := f.responses[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if !ok {
			resp = cannedResponse{
				status: http.StatusNotFound,
				body:   `{"error":{"code":"global/object-does-not-exist","message":"not found"}}`,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = io.WriteString(w, resp.body)
	}))
	return f
}

func (f *fakeAPI) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = cannedResponse{status: status, body: body}
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	Expect(f.requests).NotTo(BeEmpty())
	return f.requests[len(f.requests)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

const instanceJSON = `{
	"id": "0920582c7ff041399e34823a0be62549",
	"name": "training-node-1",
	"ip": "198.51.100.2",
	"private_ip": "10.0.2.100",
	"status": "active",
	"ssh_key_names": ["macbook-pro"],
	"file_system_names": ["shared-fs"],
	"region": {"name": "us-west-1", "description": "California, USA"},
	"instance_type": {
		"name": "gpu_1x_a100",
		"description": "1x A100 (40 GB SXM4)",
		"gpu_description": "A100 (40 GB SXM4)",
		"price_cents_per_hour": 129,
		"specs": {"vcpus": 30, "memory_gib": 200, "storage_gib": 512, "gpus": 1}
	},
	"hostname": "10-0-2-100.cloud.lambdalabs.com",
	"is_reserved": false,
	"actions": {
		"migrate": {"available": false, "reason_code": "vm-is-too-old", "reason_description": "too old"},
		"rebuild": {"available": true},
		"restart": {"available": true},
		"cold_reboot": {"available": true},
		"terminate": {"available": true}
	}
}`

var _ = Describe("Client", func() {
	var (
		api    *fakeAPI
		client *lambdacloud.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = newFakeAPI()
		client = lambdacloud.New("secret-key", lambdacloud.WithBaseURL(api.server.URL))
	})

	AfterEach(func() {
		api.server.Close()
	})

	Context("Authentication", func() {
		It("should send a bearer header by default", func() {
			api.on("GET", "/api/v1/instances", 200, `{"data": []}`)

			_, err := client.ListInstances(ctx)
			Expect(err).NotTo(HaveOccurred())

			req := api.last()
			Expect(req.Header.Values("Authorization")).To(Equal([]string{"Bearer secret-key"}))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(req.Header.Get("Accept")).To(Equal("application/json"))
		})

		It("should send a basic header with an empty password when configured", func() {
			client = lambdacloud.New("secret-key",
				lambdacloud.WithBaseURL(api.server.URL),
				lambdacloud.WithAuthMethod(lambdacloud.AuthBasic))
			api.on("GET", "/api/v1/ssh-keys", 200, `{"data": []}`)

			_, err := client.ListSSHKeys(ctx)
			Expect(err).NotTo(HaveOccurred())

			expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("secret-key:"))
			Expect(api.last().Header.Values("Authorization")).To(Equal([]string{expected}))
		})
	})

	Context("Base URL", func() {
		It("should strip a trailing slash", func() {
			client = lambdacloud.New("k", lambdacloud.WithBaseURL(api.server.URL+"/"))
			api.on("GET", "/api/v1/instances", 200, `{"data": []}`)

			Expect(client.BaseURL()).To(Equal(api.server.URL))
			_, err := client.ListInstances(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.last().Path).To(Equal("/api/v1/instances"))
		})

		It("should default to the public endpoint", func() {
			Expect(lambdacloud.New("k").BaseURL()).To(Equal("https://cloud.lambdalabs.com"))
		})
	})

	Context("Envelope handling", func() {
		It("should unwrap the data field", func() {
			api.on("GET", "/api/v1/instances/0920582c7ff041399e34823a0be62549", 200, `{"data": `+instanceJSON+`}`)

			inst, err := client.GetInstance(ctx, "0920582c7ff041399e34823a0be62549")
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.ID).To(Equal("0920582c7ff041399e34823a0be62549"))
			Expect(inst.Status).To(Equal(lambdacloud.InstanceStatusActive))
			Expect(inst.Region.Name).To(Equal(lambdacloud.RegionUSWest1))
			Expect(inst.InstanceType.Specs.GPUs).To(Equal(1))
			Expect(inst.Actions.Migrate.Available).To(BeFalse())
			Expect(inst.Actions.Migrate.ReasonCode).To(Equal(lambdacloud.ActionUnavailableVMIsTooOld))
			Expect(inst.IsReserved).NotTo(BeNil())
			Expect(*inst.IsReserved).To(BeFalse())
		})

		It("should fail with code and message", func() {
			api.on("GET", "/api/v1/instances", 401,
				`{"error":{"code":"global/invalid-api-key","message":"API key was invalid, expired, or deleted."}}`)

			_, err := client.ListInstances(ctx)
			Expect(err).To(MatchError("global/invalid-api-key: API key was invalid, expired, or deleted."))

			var apiErr *lambdacloud.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(401))
		})

		It("should append the suggestion when present", func() {
			api.on("GET", "/api/v1/images", 400, `{"error":{"code":"C","message":"M","suggestion":"S"}}`)

			_, err := client.ListImages(ctx)
			Expect(err).To(MatchError("C: M - S"))
		})

		It("should surface not-found without special casing", func() {
			_, err := client.GetInstance(ctx, "missing")
			Expect(err).To(MatchError("global/object-does-not-exist: not found"))
		})

		It("should report bodies that are not JSON", func() {
			api.on("GET", "/api/v1/firewall-rules", 502, `<html>Bad Gateway</html>`)

			_, err := client.ListFirewallRules(ctx)
			var malformed *lambdacloud.MalformedResponseError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(malformed.StatusCode).To(Equal(502))
			Expect(malformed.Body).To(ContainSubstring("Bad Gateway"))
		})
	})

	Context("Instances", func() {
		It("should post only the fields present in an update", func() {
			api.on("POST", "/api/v1/instances/abc", 200, `{"data": `+instanceJSON+`}`)

			name := "renamed"
			_, err := client.UpdateInstance(ctx, "abc", lambdacloud.InstanceModificationRequest{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(api.last().Method).To(Equal("POST"))
			Expect(api.last().Body).To(MatchJSON(`{"name":"renamed"}`))

			_, err = client.UpdateInstance(ctx, "abc", lambdacloud.InstanceModificationRequest{})
			Expect(err).NotTo(HaveOccurred())
			Expect(api.last().Body).To(MatchJSON(`{}`))
		})

		It("should launch with an image selected by family", func() {
			api.on("POST", "/api/v1/instance-operations/launch", 200, `{"data":{"instance_ids":["i-1"]}}`)

			resp, err := client.LaunchInstance(ctx, lambdacloud.InstanceLaunchRequest{
				RegionName:       lambdacloud.RegionUSEast1,
				InstanceTypeName: "gpu_1x_a10",
				SSHKeyNames:      []string{"laptop"},
				Image:            lambdacloud.ImageByFamily{Family: "lambda-stack-22-04"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.InstanceIDs).To(Equal([]string{"i-1"}))
			Expect(api.last().Body).To(MatchJSON(`{
				"region_name": "us-east-1",
				"instance_type_name": "gpu_1x_a10",
				"ssh_key_names": ["laptop"],
				"image": {"family": "lambda-stack-22-04"}
			}`))
		})

		It("should launch with an image selected by id", func() {
			api.on("POST", "/api/v1/instance-operations/launch", 200, `{"data":{"instance_ids":["i-1","i-2"]}}`)

			_, err := client.LaunchInstance(ctx, lambdacloud.InstanceLaunchRequest{
				RegionName:       lambdacloud.RegionUSEast1,
				InstanceTypeName: "gpu_1x_a10",
				SSHKeyNames:      []string{"laptop"},
				Image:            lambdacloud.ImageByID{ID: "img-123"},
			})
			Expect(err).NotTo(HaveOccurred())

			var sent map[string]interface{}
			Expect(json.Unmarshal(api.last().Body, &sent)).To(Succeed())
			Expect(sent["image"]).To(Equal(map[string]interface{}{"id": "img-123"}))
		})

		It("should omit the image when none is given", func() {
			api.on("POST", "/api/v1/instance-operations/launch", 200, `{"data":{"instance_ids":["i-1"]}}`)

			_, err := client.LaunchInstance(ctx, lambdacloud.InstanceLaunchRequest{
				RegionName:       lambdacloud.RegionUSEast1,
				InstanceTypeName: "gpu_1x_a10",
				SSHKeyNames:      []string{"laptop"},
			})
			Expect(err).NotTo(HaveOccurred())

			var sent map[string]interface{}
			Expect(json.Unmarshal(api.last().Body, &sent)).To(Succeed())
			Expect(sent).NotTo(HaveKey("image"))
		})

		It("should unwrap restarted and terminated instances", func() {
			api.on("POST", "/api/v1/instance-operations/restart", 200, `{"data":{"restarted_instances":[`+instanceJSON+`]}}`)
			api.on("POST", "/api/v1/instance-operations/terminate", 200, `{"data":{"terminated_instances":[`+instanceJSON+`]}}`)

			restarted, err := client.RestartInstances(ctx, []string{"0920582c7ff041399e34823a0be62549"})
			Expect(err).NotTo(HaveOccurred())
			Expect(restarted).To(HaveLen(1))
			Expect(api.last().Body).To(MatchJSON(`{"instance_ids":["0920582c7ff041399e34823a0be62549"]}`))

			terminated, err := client.TerminateInstances(ctx, []string{"0920582c7ff041399e34823a0be62549"})
			Expect(err).NotTo(HaveOccurred())
			Expect(terminated[0].ID).To(Equal("0920582c7ff041399e34823a0be62549"))
		})

		It("should key instance types by name", func() {
			api.on("GET", "/api/v1/instance-types", 200, `{"data":{
				"gpu_8x_h100": {"instance_type": {"name": "gpu_8x_h100", "specs": {"gpus": 8}}, "regions_with_capacity_available": []},
				"gpu_1x_a10": {"instance_type": {"name": "gpu_1x_a10", "specs": {"gpus": 1}},
					"regions_with_capacity_available": [{"name": "us-east-1", "description": "Virginia, USA"}]}
			}}`)

			types, err := client.ListInstanceTypes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(types.Names()).To(Equal([]string{"gpu_1x_a10", "gpu_8x_h100"}))
			Expect(types["gpu_1x_a10"].RegionsWithCapacityAvailable[0].Name).To(Equal(lambdacloud.RegionUSEast1))
		})
	})

	Context("SSH keys", func() {
		It("should return a generated key when the API includes a private key", func() {
			api.on("POST", "/api/v1/ssh-keys", 200,
				`{"data":{"id":"k1","name":"gen","public_key":"ssh-ed25519 AAAA","private_key":"-----BEGIN-----"}}`)

			added, err := client.AddSSHKey(ctx, lambdacloud.AddSSHKeyRequest{Name: "gen"})
			Expect(err).NotTo(HaveOccurred())
			Expect(api.last().Body).To(MatchJSON(`{"name":"gen"}`))

			generated, ok := added.(lambdacloud.GeneratedSSHKey)
			Expect(ok).To(BeTrue())
			Expect(generated.PublicKey).To(Equal("ssh-ed25519 AAAA"))
			Expect(generated.PrivateKey).To(Equal("-----BEGIN-----"))
			Expect(added.Key().ID).To(Equal("k1"))
		})

		It("should return a plain key when the API omits the private key", func() {
			api.on("POST", "/api/v1/ssh-keys", 200,
				`{"data":{"id":"k2","name":"mine","public_key":"ssh-ed25519 BBBB"}}`)

			added, err := client.AddSSHKey(ctx, lambdacloud.AddSSHKeyRequest{Name: "mine", PublicKey: "ssh-ed25519 BBBB"})
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(Equal(lambdacloud.SSHKey{ID: "k2", Name: "mine", PublicKey: "ssh-ed25519 BBBB"}))
		})
	})

	Context("Deletes", func() {
		It("should send no body when deleting an SSH key", func() {
			api.on("DELETE", "/api/v1/ssh-keys/k1", 200, `{"data":{}}`)

			Expect(client.DeleteSSHKey(ctx, "k1")).To(Succeed())
			req := api.last()
			Expect(req.Method).To(Equal("DELETE"))
			Expect(req.HasBody).To(BeFalse())
		})

		It("should send no body when deleting a filesystem and return the deleted ids", func() {
			api.on("DELETE", "/api/v1/filesystems/fs-1", 200, `{"data":{"deleted_ids":["fs-1"]}}`)

			resp, err := client.DeleteFilesystem(ctx, "fs-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.DeletedIDs).To(Equal([]string{"fs-1"}))
			Expect(api.last().HasBody).To(BeFalse())
		})
	})

	Context("Filesystems", func() {
		It("should list from file-systems and create under filesystems", func() {
			api.on("GET", "/api/v1/file-systems", 200, `{"data":[{"id":"fs-1","name":"shared","bytes_used":2048,
				"created_by":{"id":"u1","email":"ops@example.com","status":"active"}}]}`)
			api.on("POST", "/api/v1/filesystems", 200, `{"data":{"id":"fs-2","name":"new","is_in_use":false}}`)

			list, err := client.ListFilesystems(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(*list[0].BytesUsed).To(Equal(int64(2048)))
			Expect(list[0].CreatedBy.Status).To(Equal(lambdacloud.UserStatusActive))

			fs, err := client.CreateFilesystem(ctx, lambdacloud.FilesystemCreateRequest{Name: "new", Region: lambdacloud.RegionUSWest1})
			Expect(err).NotTo(HaveOccurred())
			Expect(fs.ID).To(Equal("fs-2"))
			Expect(api.last().Body).To(MatchJSON(`{"name":"new","region":"us-west-1"}`))
		})
	})

	Context("Firewall rules", func() {
		It("should replace the full rule set", func() {
			api.on("PUT", "/api/v1/firewall-rules", 200,
				`{"data":[{"protocol":"tcp","port_range":[22,22],"source_network":"0.0.0.0/0","description":"ssh"}]}`)

			rules, err := client.SetFirewallRules(ctx, []lambdacloud.FirewallRule{{
				Protocol:      lambdacloud.ProtocolTCP,
				PortRange:     &lambdacloud.PortRange{22, 22},
				SourceNetwork: "0.0.0.0/0",
				Description:   "ssh",
			}})
			Expect(err).NotTo(HaveOccurred())
			Expect(rules).To(HaveLen(1))
			Expect(*rules[0].PortRange).To(Equal(lambdacloud.PortRange{22, 22}))
			Expect(api.last().Body).To(MatchJSON(
				`{"data":[{"protocol":"tcp","port_range":[22,22],"source_network":"0.0.0.0/0","description":"ssh"}]}`))
		})

		It("should send an empty list to clear all rules", func() {
			api.on("PUT", "/api/v1/firewall-rules", 200, `{"data":[]}`)

			_, err := client.SetFirewallRules(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(api.last().Body).To(MatchJSON(`{"data":[]}`))
		})
	})

	Context("Concurrency", func() {
		It("should not mix up responses of concurrent calls", func() {
			api.on("GET", "/api/v1/ssh-keys", 200, `{"data":[{"id":"k1","name":"a","public_key":"p"}]}`)
			api.on("GET", "/api/v1/images", 200, `{"data":[{"id":"img-1","architecture":"arm64"}]}`)

			var wg sync.WaitGroup
			errs := make(chan error, 40)
			for i := 0; i < 20; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					keys, err := client.ListSSHKeys(ctx)
					if err == nil && (len(keys) != 1 || keys[0].ID != "k1") {
						err = fmt.Errorf("unexpected keys: %v", keys)
					}
					errs <- err
				}()
				go func() {
					defer wg.Done()
					images, err := client.ListImages(ctx)
					if err == nil && (len(images) != 1 || images[0].Architecture != lambdacloud.ArchitectureARM64) {
						err = fmt.Errorf("unexpected images: %v", images)
					}
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(api.count()).To(Equal(40))
		})
	})

	Context("Retries", func() {
		It("should send a failing request exactly once by default", func() {
			api.on("GET", "/api/v1/images", 503, `{"error":{"code":"global/unavailable","message":"try later"}}`)

			_, err := client.ListImages(ctx)
			Expect(err).To(MatchError("global/unavailable: try later"))
			Expect(api.count()).To(Equal(1))
		})

		It("should retry when opted in", func() {
			client = lambdacloud.New("k", lambdacloud.WithBaseURL(api.server.URL), lambdacloud.WithRetryMax(1))
			api.on("GET", "/api/v1/images", 503, `{"error":{"code":"global/unavailable","message":"try later"}}`)

			_, err := client.ListImages(ctx)
			Expect(err).To(MatchError("global/unavailable: try later"))
			Expect(api.count()).To(Equal(2))
		})

		It("should never retry non-idempotent requests", func() {
			client = lambdacloud.New("k", lambdacloud.WithBaseURL(api.server.URL), lambdacloud.WithRetryMax(2))
			api.on("POST", "/api/v1/instance-operations/launch", 502, `{"error":{"code":"global/unknown","message":"gateway"}}`)
			api.on("DELETE", "/api/v1/filesystems/fs1", 502, `{"error":{"code":"global/unknown","message":"gateway"}}`)

			_, err := client.LaunchInstance(ctx, lambdacloud.InstanceLaunchRequest{
				RegionName:       lambdacloud.RegionUSWest1,
				InstanceTypeName: "gpu_1x_a10",
				SSHKeyNames:      []string{"macbook"},
			})
			Expect(err).To(MatchError("global/unknown: gateway"))
			Expect(api.count()).To(Equal(1))

			_, err = client.DeleteFilesystem(ctx, "fs1")
			Expect(err).To(MatchError("global/unknown: gateway"))
			Expect(api.count()).To(Equal(2))
		})
	})
})
