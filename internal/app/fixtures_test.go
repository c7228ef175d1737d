package app

// pipelineHCL describes two bundles. The first computes four slices through
// a regular node and an MME each; the second reads the first one's output.
const pipelineHCL = `
variable "depth" {
  default = 2
}

bundle "matmul" {
  index          = 1
  pipeline_depth = var.depth

  bvd "n" {
    slices = 4
  }

  node "fork" {
    kind    = "fork"
    inputs  = ["x"]
    outputs = ["x0", "x1", "x2", "x3"]
  }
  node "pre0" {
    inputs  = ["x0"]
    outputs = ["a0"]
  }
  node "mm0" {
    kind    = "mme"
    inputs  = ["a0", "w"]
    outputs = ["m0"]
  }
  node "pre1" {
    inputs  = ["x1"]
    outputs = ["a1"]
  }
  node "mm1" {
    kind    = "mme"
    inputs  = ["a1", "w"]
    outputs = ["m1"]
  }
  node "pre2" {
    inputs  = ["x2"]
    outputs = ["a2"]
  }
  node "mm2" {
    kind    = "mme"
    inputs  = ["a2", "w"]
    outputs = ["m2"]
  }
  node "pre3" {
    inputs  = ["x3"]
    outputs = ["a3"]
  }
  node "mm3" {
    kind    = "mme"
    inputs  = ["a3", "w"]
    outputs = ["m3"]
  }
  node "join" {
    kind    = "join"
    inputs  = ["m0", "m1", "m2", "m3"]
    outputs = ["y"]
  }

  slice "m0" {
    coord = { n = 0 }
  }
  slice "m1" {
    coord = { n = 1 }
  }
  slice "m2" {
    coord = { n = 2 }
  }
  slice "m3" {
    coord = { n = 3 }
  }
}

bundle "tail" {
  index = 2

  bvd "n" {
    slices = 2
  }

  node "fork2" {
    kind    = "fork"
    inputs  = ["y"]
    outputs = ["y0", "y1"]
  }
  node "r0" {
    inputs  = ["y0"]
    outputs = ["z0"]
  }
  node "r1" {
    inputs  = ["y1"]
    outputs = ["z1"]
  }
  node "join2" {
    kind    = "join"
    inputs  = ["z0", "z1"]
    outputs = ["out"]
  }

  slice "z0" {
    coord = { n = 0 }
  }
  slice "z1" {
    coord = { n = 1 }
  }
}
`
