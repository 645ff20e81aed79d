package appservice

import "testing"

func TestRuntimeConfigOfCopiesRuntimeFields(t *testing.T) {
	config := RuntimeConfigOf(&RuntimeSpec{Os: OsLinux, JavaVersion: "17", WebContainer: "tomcat 10.0"}, nil)

	if config.Os != OsLinux || config.JavaVersion != "17" || config.WebContainer != "tomcat 10.0" {
		t.Fatal("The runtime fields should be copied")
	}

	if config.Image != "" {
		t.Fatal("No docker field should be set")
	}
}

func TestRuntimeConfigOfOverlaysDockerFields(t *testing.T) {
	runtime := &RuntimeSpec{Os: OsDocker}
	docker := &DockerSpec{
		Image:          "registry.example.com/app:1.0",
		RegistryUrl:    "https://registry.example.com",
		Username:       "deployer",
		Password:       "secret",
		StartUpCommand: "java -jar app.jar",
	}

	config := RuntimeConfigOf(runtime, docker)

	if config.Os != OsDocker {
		t.Fatal("The OS family should come from the runtime spec")
	}

	if config.Image != "registry.example.com/app:1.0" || config.StartUpCommand != "java -jar app.jar" {
		t.Fatal("The docker fields should accumulate on top of the runtime fields")
	}
}

func TestIsDocker(t *testing.T) {
	if !(RuntimeConfig{Os: OsDocker}).IsDocker() {
		t.Fatal("A docker OS is a docker runtime")
	}

	if !(RuntimeConfig{Os: OsLinux, Image: "nginx:latest"}).IsDocker() {
		t.Fatal("An image reference makes the runtime docker based")
	}

	if (RuntimeConfig{Os: OsLinux}).IsDocker() {
		t.Fatal("A plain linux runtime is not docker based")
	}
}

func TestIsBareRuntime(t *testing.T) {
	if !(RuntimeConfig{WebContainer: "Java SE"}).IsBareRuntime() {
		t.Fatal("The java se container is the bare runtime mode, ignoring case")
	}

	if (RuntimeConfig{WebContainer: "tomcat 10.0"}).IsBareRuntime() {
		t.Fatal("A servlet container is not the bare runtime mode")
	}
}
